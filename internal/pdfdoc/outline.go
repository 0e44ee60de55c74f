package pdfdoc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Heading is one outline entry. Level is "H1", "H2" or "H3".
type Heading struct {
	Level string
	Text  string
	Page  int
}

// Section is a heading with the body text that follows it up to the next
// heading, across page breaks.
type Section struct {
	Heading
	Text string
}

var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.?\s+[A-Z]`),
	regexp.MustCompile(`^[A-Z][A-Z\s]{2,}$`),
	regexp.MustCompile(`^[A-Z][a-z\s]+:?$`),
	regexp.MustCompile(`^\d+\.\d+`),
	regexp.MustCompile(`^(Chapter|Section|Part)\s+\d+`),
}

// headingFontSize is the point size above which any short line counts as a heading.
const headingFontSize = 12

// IsHeading reports whether a line looks like a heading: a numbering or
// capitalisation pattern, a large font, or a short bold line.
func IsHeading(l Line) bool {
	text := strings.TrimSpace(l.Text)
	n := utf8.RuneCountInString(text)
	if n < 3 || n > 200 {
		return false
	}
	for _, re := range headingPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	if l.FontSize > headingFontSize {
		return true
	}
	return l.Bold && n < 100
}

type candidate struct {
	page, line int
	size       float64
	heading    Heading
}

func (d *Document) candidates() []candidate {
	var out []candidate
	for pi, p := range d.Pages {
		for li, l := range p.Lines {
			if !IsHeading(l) {
				continue
			}
			out = append(out, candidate{
				page: pi,
				line: li,
				size: math.Round(l.FontSize*10) / 10,
				heading: Heading{
					Text: strings.TrimSpace(l.Text),
					Page: p.Number,
				},
			})
		}
	}
	assignLevels(out)
	return out
}

// assignLevels maps the three largest heading font sizes to H1..H3 and every
// other size to the closest of those.
func assignLevels(cs []candidate) {
	if len(cs) == 0 {
		return
	}
	seen := make(map[float64]bool)
	var sizes []float64
	for _, c := range cs {
		if !seen[c.size] {
			seen[c.size] = true
			sizes = append(sizes, c.size)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	if len(sizes) > 3 {
		sizes = sizes[:3]
	}
	for i := range cs {
		best := 0
		for j, s := range sizes {
			if math.Abs(s-cs[i].size) < math.Abs(sizes[best]-cs[i].size) {
				best = j
			}
		}
		cs[i].heading.Level = fmt.Sprintf("H%d", best+1)
	}
}

// Outline returns the headings in document order.
func (d *Document) Outline() []Heading {
	cs := d.candidates()
	out := make([]Heading, len(cs))
	for i, c := range cs {
		out[i] = c.heading
	}
	return out
}

// Sections splits the document at its headings. Text before the first
// heading belongs to no section.
func (d *Document) Sections() []Section {
	cs := d.candidates()
	sections := make([]Section, 0, len(cs))
	for i, c := range cs {
		var body []string
		end := candidate{page: len(d.Pages)}
		if i+1 < len(cs) {
			end = cs[i+1]
		}
		for pi := c.page; pi < len(d.Pages) && pi <= end.page; pi++ {
			lines := d.Pages[pi].Lines
			from, to := 0, len(lines)
			if pi == c.page {
				from = c.line + 1
			}
			if pi == end.page {
				to = end.line
			}
			for li := from; li < to; li++ {
				body = append(body, lines[li].Text)
			}
		}
		sections = append(sections, Section{Heading: c.heading, Text: strings.Join(body, "\n")})
	}
	return sections
}
