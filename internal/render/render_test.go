package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/fileset"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Metadata: analysis.Metadata{
			InputDocuments:      []string{"a.pdf", "b.pdf", "c.pdf"},
			Persona:             "PhD Researcher",
			JobToBeDone:         "Prepare a literature review",
			ProcessingTimestamp: "2025-07-22T12:36:00Z",
		},
		ExtractedSections: []analysis.Section{
			{Document: "a.pdf", SectionTitle: "Methods | Design", ImportanceRank: 1, PageNumber: 2},
			{Document: "b.pdf", SectionTitle: "Results", ImportanceRank: 0.625, PageNumber: 5},
		},
		SubsectionAnalysis: []analysis.Subsection{
			{Document: "a.pdf", RefinedText: "We sampled <b>40</b> sites.", PageNumber: 2},
		},
	}
}

func TestResultMarkdown(t *testing.T) {
	md := ResultMarkdown(sampleResult())
	for _, want := range []string{
		"# Persona analysis",
		"- **Persona:** PhD Researcher",
		"- **Documents:** 3",
		"| 1 | Methods \\| Design | a.pdf | 2 | 1 |",
		"| 2 | Results | b.pdf | 5 | 0.625 |",
		"### a.pdf, page 2",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, md)
		}
	}
}

func TestResultMarkdown_Empty(t *testing.T) {
	md := ResultMarkdown(&analysis.Result{})
	if !strings.Contains(md, "_No sections._") || !strings.Contains(md, "_No subsections._") {
		t.Errorf("expected empty placeholders, got:\n%s", md)
	}
	if !strings.Contains(ResultMarkdown(nil), "_No result._") {
		t.Error("expected nil result placeholder")
	}
}

func TestHTML_RenderResult(t *testing.T) {
	var buf bytes.Buffer
	if err := NewHTML().RenderResult(&buf, sampleResult()); err != nil {
		t.Fatalf("RenderResult: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<h1>Persona analysis</h1>") {
		t.Errorf("expected h1, got:\n%s", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("expected a table, got:\n%s", out)
	}
	if strings.Contains(out, "<b>40</b>") {
		t.Errorf("service text must not inject HTML, got:\n%s", out)
	}
}

func TestOutlineMarkdown(t *testing.T) {
	md := OutlineMarkdown(&analysis.Outline{
		Filename:   "guide.pdf",
		Title:      "Field Guide",
		TotalPages: 3,
		Outline: []analysis.Heading{
			{Level: "H1", Text: "Introduction", Page: 1},
			{Level: "H2", Text: "Scope", Page: 1},
			{Level: "H3", Text: "Limits", Page: 2},
		},
	})
	want := "# Field Guide\n\nguide.pdf, 3 pages\n\n- Introduction (p. 1)\n  - Scope (p. 1)\n    - Limits (p. 2)\n"
	if md != want {
		t.Errorf("unexpected outline markdown:\n%q\nwant:\n%q", md, want)
	}
}

func TestOutlineMarkdown_FallsBackToFilename(t *testing.T) {
	md := OutlineMarkdown(&analysis.Outline{Filename: "x.pdf", TotalPages: 1})
	if !strings.HasPrefix(md, "# x.pdf\n") || !strings.Contains(md, "_No headings found._") {
		t.Errorf("unexpected outline markdown:\n%s", md)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	var r Renderer = Markdown{}
	if err := r.RenderOutline(&buf, nil); err != nil {
		t.Fatalf("RenderOutline: %v", err)
	}
	if !strings.Contains(buf.String(), "_No outline._") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFileList_EscapesNames(t *testing.T) {
	out, err := FileList([]fileset.FileHandle{
		{Name: "a.pdf", Size: 512},
		{Name: `<script>alert("x")</script>.pdf`, Size: 2048},
	})
	if err != nil {
		t.Fatalf("FileList: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("file name was not escaped: %s", out)
	}
	for _, want := range []string{
		`<ul class="file-list">`,
		`<li class="file" data-index="0"><span class="name">a.pdf</span> <span class="size">512 B</span></li>`,
		`&lt;script&gt;`,
		`2.0 KB`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestFileList_Empty(t *testing.T) {
	out, err := FileList(nil)
	if err != nil {
		t.Fatalf("FileList: %v", err)
	}
	if out != `<p class="empty">No files selected</p>` {
		t.Errorf("unexpected empty list %q", out)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KB",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for n, want := range tests {
		if got := FormatSize(n); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", n, got, want)
		}
	}
}
