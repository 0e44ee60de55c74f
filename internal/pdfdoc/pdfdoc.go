package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

var (
	// ErrNotPDF is returned for bytes the PDF reader cannot open.
	ErrNotPDF = errors.New("not a readable PDF")
	// ErrNoPages is returned for a PDF with an empty page tree.
	ErrNoPages = errors.New("PDF has no pages")
)

// UntitledDocument is the title used when neither the text nor the metadata yields one.
const UntitledDocument = "Untitled Document"

// Info is what intake needs to know about a PDF.
type Info struct {
	Pages int
	Title string // metadata title, may be empty
}

// Line is one row of text on a page.
type Line struct {
	Text     string
	FontSize float64
	Bold     bool
}

// Page holds the rows of one page, top to bottom.
type Page struct {
	Number int
	Lines  []Line
}

// Document is the text layer of a parsed PDF.
type Document struct {
	MetaTitle string
	Pages     []Page
}

// Inspect opens data and reports page count and metadata title.
func Inspect(data []byte) (info *Info, err error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}
	defer recoverReader(&err)

	n := r.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}
	return &Info{Pages: n, Title: metaTitle(r)}, nil
}

// Parse extracts the text rows of every page.
func Parse(data []byte) (doc *Document, err error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}
	defer recoverReader(&err)

	n := r.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}
	doc = &Document{MetaTitle: metaTitle(r)}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		page := Page{Number: i}
		if !p.V.IsNull() {
			page.Lines = pageLines(p)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func open(data []byte) (*pdflib.Reader, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	var (
		r   *pdflib.Reader
		err error
	)
	func() {
		defer recoverReader(&err)
		r, err = pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	}()
	if err != nil {
		if errors.Is(err, ErrNotPDF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return r, nil
}

// recoverReader turns a panic from the PDF reader on malformed input into ErrNotPDF.
func recoverReader(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("%w: %v", ErrNotPDF, p)
	}
}

func metaTitle(r *pdflib.Reader) string {
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
}

// rowTolerance is how far apart, in points, two glyph baselines may be and
// still share a row.
const rowTolerance = 2

// pageLines groups the glyphs of a page into rows, top to bottom, falling
// back to plain text when the page has no positioned glyphs.
func pageLines(p pdflib.Page) (lines []Line) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	glyphs := p.Content().Text
	if len(glyphs) == 0 {
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil
		}
		for _, s := range strings.Split(text, "\n") {
			if s = collapseSpace(s); s != "" {
				lines = append(lines, Line{Text: s})
			}
		}
		return lines
	}

	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].Y > glyphs[j].Y })
	var row []pdflib.Text
	for _, g := range glyphs {
		if len(row) > 0 && math.Abs(g.Y-row[len(row)-1].Y) > rowTolerance {
			if line, ok := rowLine(row); ok {
				lines = append(lines, line)
			}
			row = nil
		}
		row = append(row, g)
	}
	if line, ok := rowLine(row); ok {
		lines = append(lines, line)
	}
	return lines
}

func rowLine(texts []pdflib.Text) (Line, bool) {
	if len(texts) == 0 {
		return Line{}, false
	}
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var b strings.Builder
	var size float64
	var bold bool
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > 0.2*math.Max(t.FontSize, 1) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		size += t.FontSize
		if strings.Contains(strings.ToLower(t.Font), "bold") {
			bold = true
		}
	}
	text := collapseSpace(b.String())
	if text == "" {
		return Line{}, false
	}
	return Line{Text: text, FontSize: size / float64(len(texts)), Bold: bold}, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the page text, one row per line.
func (p Page) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Title picks the largest-font text on the first page, then the metadata
// title, then UntitledDocument.
func (d *Document) Title() string {
	if len(d.Pages) > 0 && len(d.Pages[0].Lines) > 0 {
		first := d.Pages[0].Lines
		maxSize := 0.0
		for _, l := range first {
			maxSize = math.Max(maxSize, l.FontSize)
		}
		if maxSize > 0 {
			var parts []string
			for _, l := range first {
				if l.FontSize >= maxSize-1 {
					parts = append(parts, l.Text)
				}
			}
			title := collapseSpace(strings.Join(parts, " "))
			if r := []rune(title); len(r) > 100 {
				title = strings.TrimSpace(string(r[:100]))
			}
			if title != "" {
				return title
			}
		}
	}
	if d.MetaTitle != "" {
		return d.MetaTitle
	}
	return UntitledDocument
}
