// Package render turns analysis results and outlines into Markdown or HTML
// for the CLI and web front ends.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/docpersona/internal/analysis"
)

// Renderer is the document viewer contract a front end implements.
type Renderer interface {
	RenderResult(w io.Writer, res *analysis.Result) error
	RenderOutline(w io.Writer, o *analysis.Outline) error
}

// Markdown renders plain Markdown.
type Markdown struct{}

// HTML renders the Markdown through goldmark. Raw HTML in service-provided
// text is dropped, not passed through.
type HTML struct {
	md goldmark.Markdown
}

func NewHTML() *HTML {
	return &HTML{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

var (
	_ Renderer = Markdown{}
	_ Renderer = (*HTML)(nil)
)

func (Markdown) RenderResult(w io.Writer, res *analysis.Result) error {
	_, err := io.WriteString(w, ResultMarkdown(res))
	return err
}

func (Markdown) RenderOutline(w io.Writer, o *analysis.Outline) error {
	_, err := io.WriteString(w, OutlineMarkdown(o))
	return err
}

func (h *HTML) RenderResult(w io.Writer, res *analysis.Result) error {
	return h.convert(w, ResultMarkdown(res))
}

func (h *HTML) RenderOutline(w io.Writer, o *analysis.Outline) error {
	return h.convert(w, OutlineMarkdown(o))
}

func (h *HTML) convert(w io.Writer, src string) error {
	if err := h.md.Convert([]byte(src), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// ResultMarkdown builds the persona analysis report.
func ResultMarkdown(res *analysis.Result) string {
	var b strings.Builder
	b.WriteString("# Persona analysis\n\n")
	if res == nil {
		b.WriteString("_No result._\n")
		return b.String()
	}

	m := res.Metadata
	if m.Persona != "" {
		fmt.Fprintf(&b, "- **Persona:** %s\n", inline(m.Persona))
	}
	if m.JobToBeDone != "" {
		fmt.Fprintf(&b, "- **Job to be done:** %s\n", inline(m.JobToBeDone))
	}
	fmt.Fprintf(&b, "- **Documents:** %d\n", len(m.InputDocuments))
	if m.ProcessingTimestamp != "" {
		fmt.Fprintf(&b, "- **Processed:** %s\n", inline(m.ProcessingTimestamp))
	}

	b.WriteString("\n## Extracted sections\n\n")
	if len(res.ExtractedSections) == 0 {
		b.WriteString("_No sections._\n")
	} else {
		b.WriteString("| # | Section | Document | Page | Importance |\n|---|---|---|---|---|\n")
		for i, s := range res.ExtractedSections {
			fmt.Fprintf(&b, "| %d | %s | %s | %d | %s |\n",
				i+1, cell(s.SectionTitle), cell(s.Document), s.PageNumber, formatRank(s.ImportanceRank))
		}
	}

	b.WriteString("\n## Subsection analysis\n\n")
	if len(res.SubsectionAnalysis) == 0 {
		b.WriteString("_No subsections._\n")
	} else {
		for _, s := range res.SubsectionAnalysis {
			fmt.Fprintf(&b, "### %s, page %d\n\n%s\n\n", inline(s.Document), s.PageNumber, inline(s.RefinedText))
		}
	}
	return b.String()
}

// OutlineMarkdown builds the single-document outline view. Headings become
// nested list items by level.
func OutlineMarkdown(o *analysis.Outline) string {
	var b strings.Builder
	if o == nil {
		return "# Outline\n\n_No outline._\n"
	}
	title := o.Title
	if title == "" {
		title = o.Filename
	}
	fmt.Fprintf(&b, "# %s\n\n", inline(title))
	fmt.Fprintf(&b, "%s, %d pages\n\n", inline(o.Filename), o.TotalPages)
	if len(o.Outline) == 0 {
		b.WriteString("_No headings found._\n")
		return b.String()
	}
	for _, h := range o.Outline {
		indent := strings.Repeat("  ", headingDepth(h.Level))
		fmt.Fprintf(&b, "%s- %s (p. %d)\n", indent, inline(h.Text), h.Page)
	}
	return b.String()
}

func headingDepth(level string) int {
	switch level {
	case "H2":
		return 1
	case "H3":
		return 2
	}
	return 0
}

func formatRank(r float64) string {
	if r == float64(int64(r)) {
		return fmt.Sprintf("%d", int64(r))
	}
	return fmt.Sprintf("%.3f", r)
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`,
)

// inline escapes Markdown syntax in service-provided text and folds it onto one line.
func inline(s string) string {
	return inlineEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

func cell(s string) string {
	if s = inline(s); s == "" {
		return " "
	}
	return s
}
