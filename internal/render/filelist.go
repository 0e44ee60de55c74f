package render

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docpersona/internal/fileset"
)

// FileList renders the selected files as an HTML fragment. Names are
// user-controlled and always emitted as escaped text nodes.
func FileList(files []fileset.FileHandle) (string, error) {
	var root *html.Node
	if len(files) == 0 {
		root = element(atom.P, "empty")
		root.AppendChild(&html.Node{Type: html.TextNode, Data: "No files selected"})
	} else {
		root = element(atom.Ul, "file-list")
		for i, f := range files {
			li := element(atom.Li, "file")
			li.Attr = append(li.Attr, html.Attribute{Key: "data-index", Val: strconv.Itoa(i)})

			name := element(atom.Span, "name")
			name.AppendChild(&html.Node{Type: html.TextNode, Data: f.Name})
			size := element(atom.Span, "size")
			size.AppendChild(&html.Node{Type: html.TextNode, Data: FormatSize(f.Size)})

			li.AppendChild(name)
			li.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
			li.AppendChild(size)
			root.AppendChild(li)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render file list: %w", err)
	}
	return buf.String(), nil
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

// FormatSize prints a byte count the way the file picker shows it.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
