package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/excerpt"
	"github.com/dgallion1/docpersona/internal/pdfdoc"
)

// Documents resolves an uploaded filename to its parsed text. *Store
// satisfies it; a missing document yields an error wrapping ErrNotFound.
type Documents interface {
	Document(name string) (*pdfdoc.Document, error)
}

const maxParallelParse = 4

// Analyzer ranks the headings of stored documents against a persona and job.
type Analyzer struct {
	docs           Documents
	topSections    int
	topSubsections int
	excerpt        excerpt.Config
	log            *slog.Logger
	now            func() time.Time
}

func NewAnalyzer(docs Documents, topSections, topSubsections int, log *slog.Logger) *Analyzer {
	return &Analyzer{
		docs:           docs,
		topSections:    topSections,
		topSubsections: topSubsections,
		excerpt:        excerpt.DefaultConfig(),
		log:            log,
		now:            time.Now,
	}
}

type scored struct {
	doc     string
	section pdfdoc.Section
	score   float64
}

// Analyze builds the ranked result for req. Documents that were never
// uploaded are skipped; other read or parse failures are returned.
func (a *Analyzer) Analyze(req analysis.Request) (*analysis.Result, error) {
	persona := strings.TrimSpace(req.Persona.Role)
	job := strings.TrimSpace(req.JobToBeDone.Task)
	keywords := excerpt.Keywords(persona + " needs to " + job)

	inputs := make([]string, 0, len(req.Documents))
	var all []scored
	for i, l := range a.load(req.Documents) {
		d := req.Documents[i]
		inputs = append(inputs, d.Filename)
		if errors.Is(l.err, ErrNotFound) {
			a.log.Warn("document not uploaded, skipping", "filename", d.Filename)
			continue
		}
		if l.err != nil {
			return nil, l.err
		}
		for _, sec := range l.doc.Sections() {
			all = append(all, scored{
				doc:     d.Filename,
				section: sec,
				score:   excerpt.Overlap(keywords, sec.Heading.Text),
			})
		}
	}

	// Stable sort: equal scores keep document order.
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	res := &analysis.Result{
		Metadata: analysis.Metadata{
			InputDocuments:      inputs,
			Persona:             persona,
			JobToBeDone:         job,
			ProcessingTimestamp: a.now().UTC().Format(time.RFC3339),
		},
		ExtractedSections:  []analysis.Section{},
		SubsectionAnalysis: []analysis.Subsection{},
	}
	for i, s := range all {
		if i >= a.topSections {
			break
		}
		res.ExtractedSections = append(res.ExtractedSections, analysis.Section{
			Document:       s.doc,
			SectionTitle:   s.section.Heading.Text,
			ImportanceRank: float64(i + 1),
			PageNumber:     s.section.Heading.Page,
		})
		if i < a.topSubsections {
			res.SubsectionAnalysis = append(res.SubsectionAnalysis, analysis.Subsection{
				Document:    s.doc,
				RefinedText: a.refine(s.section, keywords, persona),
				PageNumber:  s.section.Heading.Page,
			})
		}
	}
	return res, nil
}

type loaded struct {
	doc *pdfdoc.Document
	err error
}

// load parses the requested documents with bounded concurrency. Results are
// indexed like docs.
func (a *Analyzer) load(docs []analysis.Document) []loaded {
	out := make([]loaded, len(docs))
	sem := make(chan struct{}, maxParallelParse)
	var wg sync.WaitGroup
	for i, d := range docs {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, name string) {
			defer func() { <-sem; wg.Done() }()
			doc, err := a.docs.Document(name)
			out[i] = loaded{doc: doc, err: err}
		}(i, d.Filename)
	}
	wg.Wait()
	return out
}

// refine picks the most relevant passage of a section body. A heading with
// no body text gets a short description instead.
func (a *Analyzer) refine(sec pdfdoc.Section, keywords map[string]bool, persona string) string {
	if text := excerpt.Best(sec.Text, keywords, a.excerpt); text != "" {
		return text
	}
	return fmt.Sprintf("%s section %q, relevant to %s", sec.Heading.Level, sec.Heading.Text, persona)
}

// Outline converts a parsed document into the single-document response.
func Outline(filename string, doc *pdfdoc.Document) *analysis.Outline {
	headings := doc.Outline()
	out := &analysis.Outline{
		Filename:   filename,
		Title:      doc.Title(),
		Outline:    make([]analysis.Heading, len(headings)),
		TotalPages: len(doc.Pages),
	}
	for i, h := range headings {
		out.Outline[i] = analysis.Heading{Level: h.Level, Text: h.Text, Page: h.Page}
	}
	return out
}
