package excerpt

import "strings"

// Config controls passage size.
type Config struct {
	MaxTokens     int // Target passage size in tokens.
	OverlapTokens int // Overlap between consecutive passages in tokens.
}

// DefaultConfig returns sensible defaults for refined-text excerpts.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     120,
		OverlapTokens: 20,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 120
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.MaxTokens {
		c.OverlapTokens = 0
	}
	return c
}

// Best splits text into passages and returns the one sharing the most
// keywords, the earliest on ties. Empty text yields "".
func Best(text string, keywords map[string]bool, cfg Config) string {
	cfg = cfg.withDefaults()
	parts := Split(text, cfg)
	if len(parts) == 0 {
		return ""
	}
	best, bestScore := 0, -1.0
	for i, p := range parts {
		if score := Overlap(keywords, p); score > bestScore {
			best, bestScore = i, score
		}
	}
	return Trim(parts[best], cfg.MaxTokens)
}

// Trim cuts text to whole sentences within maxTokens. A first sentence that
// is already too long is cut at a word boundary and ends with "...".
func Trim(text string, maxTokens int) string {
	text = strings.Join(strings.Fields(text), " ")
	if EstimateTokens(text) <= maxTokens {
		return text
	}
	var out []string
	used := 0
	for _, s := range splitSentences(text) {
		n := EstimateTokens(s)
		if used+n > maxTokens {
			break
		}
		out = append(out, s)
		used += n
	}
	if len(out) > 0 {
		return strings.Join(out, " ")
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / 1.33)
	if keep < 1 {
		keep = 1
	}
	if keep > len(words) {
		keep = len(words)
	}
	return strings.Join(words[:keep], " ") + "..."
}

// Split breaks text into passages of approximately cfg.MaxTokens, with overlap.
func Split(text string, cfg Config) []string {
	cfg = cfg.withDefaults()
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// A paragraph over the target is split by sentences.
		if paraTokens > cfg.MaxTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			result = append(result, splitBySentences(para, cfg.MaxTokens, cfg.OverlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > cfg.MaxTokens && currentTokens > 0 {
			result = append(result, current.String())

			overlap := overlapText(current.String(), cfg.OverlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on blank lines. PDF rows separated by a single
// newline stay in one paragraph.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := overlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText returns the last targetTokens worth of words.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
