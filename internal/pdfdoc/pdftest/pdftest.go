// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is one line of text drawn at the given font size. Bold selects
// Helvetica-Bold instead of Helvetica.
type Line struct {
	Text string
	Size float64
	Bold bool
}

// Build returns a PDF with one page per element of pages, lines drawn top
// to bottom. title, when set, goes into the document information dictionary.
func Build(title string, pages ...[]Line) []byte {
	var objs []string

	// Fixed objects: 1 catalog, 2 page tree, 3 regular font, 4 bold font, 5 info.
	objs = append(objs, "", "", fontObject("Helvetica"), fontObject("Helvetica-Bold"),
		fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", escape(title)))

	var kids []string
	for _, lines := range pages {
		content := contentStream(lines)
		contentID := len(objs) + 1
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		pageID := len(objs) + 1
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			contentID))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objs[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 5 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func fontObject(base string) string {
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		base, widths)
}

func contentStream(lines []Line) string {
	var b strings.Builder
	y := 740.0
	for _, l := range lines {
		size := l.Size
		if size <= 0 {
			size = 11
		}
		font := "F1"
		if l.Bold {
			font = "F2"
		}
		fmt.Fprintf(&b, "BT /%s %g Tf 72 %g Td (%s) Tj ET\n", font, size, y, escape(l.Text))
		y -= size * 2
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
