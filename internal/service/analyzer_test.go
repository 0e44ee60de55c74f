package service

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/pdfdoc"
)

var testLog = slog.New(slog.DiscardHandler)

type memDocs map[string]*pdfdoc.Document

func (m memDocs) Document(name string) (*pdfdoc.Document, error) {
	if d, ok := m[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// doc builds a one-page document; each heading is followed by its body line.
func doc(pairs ...string) *pdfdoc.Document {
	var lines []pdfdoc.Line
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines,
			pdfdoc.Line{Text: pairs[i], FontSize: 16},
			pdfdoc.Line{Text: pairs[i+1], FontSize: 10},
		)
	}
	return &pdfdoc.Document{Pages: []pdfdoc.Page{{Number: 1, Lines: lines}}}
}

func request(persona, job string, files ...string) analysis.Request {
	req := analysis.Request{
		Persona:     analysis.Persona{Role: persona},
		JobToBeDone: analysis.JobToBeDone{Task: job},
	}
	for _, f := range files {
		req.Documents = append(req.Documents, analysis.Document{Filename: f, Title: f})
	}
	return req
}

func fixedAnalyzer(docs Documents, top, sub int) *Analyzer {
	a := NewAnalyzer(docs, top, sub, testLog)
	a.now = func() time.Time { return time.Date(2025, 7, 22, 12, 36, 0, 0, time.UTC) }
	return a
}

func TestAnalyze_RanksByKeywordOverlap(t *testing.T) {
	docs := memDocs{
		"a.pdf": doc("History", "the station opened long ago.", "Sampling methods", "we used mist nets."),
		"b.pdf": doc("Budget", "costs rose.", "Review of sampling methods", "three protocols compared."),
	}
	res, err := fixedAnalyzer(docs, 15, 5).Analyze(request("Researcher", "review sampling methods", "a.pdf", "b.pdf"))
	require.NoError(t, err)

	require.Len(t, res.ExtractedSections, 4)
	assert.Equal(t, "Review of sampling methods", res.ExtractedSections[0].SectionTitle)
	assert.Equal(t, "b.pdf", res.ExtractedSections[0].Document)
	assert.Equal(t, "Sampling methods", res.ExtractedSections[1].SectionTitle)
	for i, s := range res.ExtractedSections {
		assert.Equal(t, float64(i+1), s.ImportanceRank)
		assert.Equal(t, 1, s.PageNumber)
	}

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, res.Metadata.InputDocuments)
	assert.Equal(t, "Researcher", res.Metadata.Persona)
	assert.Equal(t, "review sampling methods", res.Metadata.JobToBeDone)
	assert.Equal(t, "2025-07-22T12:36:00Z", res.Metadata.ProcessingTimestamp)

	require.Len(t, res.SubsectionAnalysis, 4)
	assert.Equal(t, "three protocols compared.", res.SubsectionAnalysis[0].RefinedText)
}

func TestAnalyze_TiesKeepDocumentOrder(t *testing.T) {
	docs := memDocs{
		"a.pdf": doc("Alpha", "x.", "Beta", "y."),
		"b.pdf": doc("Gamma", "z."),
	}
	res, err := fixedAnalyzer(docs, 15, 5).Analyze(request("Nobody", "unrelated", "a.pdf", "b.pdf"))
	require.NoError(t, err)

	var titles []string
	for _, s := range res.ExtractedSections {
		titles = append(titles, s.SectionTitle)
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles)
}

func TestAnalyze_TruncatesToTopN(t *testing.T) {
	var pairs []string
	for i := range 20 {
		pairs = append(pairs, fmt.Sprintf("Section %d", i), "body.")
	}
	res, err := fixedAnalyzer(memDocs{"a.pdf": doc(pairs...)}, 15, 5).Analyze(request("R", "J", "a.pdf"))
	require.NoError(t, err)
	assert.Len(t, res.ExtractedSections, 15)
	assert.Len(t, res.SubsectionAnalysis, 5)
}

func TestAnalyze_SkipsMissingDocuments(t *testing.T) {
	docs := memDocs{"a.pdf": doc("Methods", "m.")}
	res, err := fixedAnalyzer(docs, 15, 5).Analyze(request("R", "methods", "a.pdf", "missing.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "missing.pdf"}, res.Metadata.InputDocuments)
	assert.Len(t, res.ExtractedSections, 1)
}

func TestAnalyze_EmptyArraysNotNull(t *testing.T) {
	res, err := fixedAnalyzer(memDocs{}, 15, 5).Analyze(request("R", "J", "gone.pdf"))
	require.NoError(t, err)
	assert.NotNil(t, res.ExtractedSections)
	assert.NotNil(t, res.SubsectionAnalysis)
}

func TestAnalyze_HeadingWithoutBodyGetsDescription(t *testing.T) {
	d := &pdfdoc.Document{Pages: []pdfdoc.Page{{Number: 3, Lines: []pdfdoc.Line{{Text: "Conclusion", FontSize: 16}}}}}
	res, err := fixedAnalyzer(memDocs{"a.pdf": d}, 15, 5).Analyze(request("Analyst", "J", "a.pdf"))
	require.NoError(t, err)
	require.Len(t, res.SubsectionAnalysis, 1)
	assert.Equal(t, `H1 section "Conclusion", relevant to Analyst`, res.SubsectionAnalysis[0].RefinedText)
	assert.Equal(t, 3, res.SubsectionAnalysis[0].PageNumber)
}

func TestOutline(t *testing.T) {
	d := doc("Introduction", "text.", "Methods", "more.")
	d.MetaTitle = "Meta"
	o := Outline("x.pdf", d)
	assert.Equal(t, "x.pdf", o.Filename)
	assert.Equal(t, "Introduction Methods", o.Title)
	assert.Equal(t, 1, o.TotalPages)
	assert.Equal(t, []analysis.Heading{
		{Level: "H1", Text: "Introduction", Page: 1},
		{Level: "H1", Text: "Methods", Page: 1},
	}, o.Outline)
}
