package excerpt

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if got := EstimateTokens("word"); got != 1 {
		t.Errorf("expected 1 for a single word, got %d", got)
	}
	if got := EstimateTokens(strings.Repeat("word ", 300)); got != 399 {
		t.Errorf("expected 399 for 300 words, got %d", got)
	}
}

func TestKeywords(t *testing.T) {
	kw := Keywords("PhD Researcher needs to prepare a literature-review!")
	for _, w := range []string{"phd", "researcher", "needs", "to", "prepare", "a", "literature", "review"} {
		if !kw[w] {
			t.Errorf("expected keyword %q in %v", w, kw)
		}
	}
	if len(kw) != 8 {
		t.Errorf("expected 8 keywords, got %d", len(kw))
	}
}

func TestOverlap(t *testing.T) {
	kw := Keywords("researcher needs methods")
	if got := Overlap(kw, "Research Methods"); got != 1.0/3 {
		t.Errorf("expected 1/3, got %v", got)
	}
	if got := Overlap(nil, "anything"); got != 0 {
		t.Errorf("expected 0 for no keywords, got %v", got)
	}
}

func TestSplit_SmallTextOnePassage(t *testing.T) {
	parts := Split("One short paragraph.\n\nAnother one.", Config{MaxTokens: 100})
	if len(parts) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(parts))
	}
	if parts[0] != "One short paragraph.\n\nAnother one." {
		t.Errorf("unexpected passage %q", parts[0])
	}
}

func TestSplit_LargeTextSplitsWithinBounds(t *testing.T) {
	large := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	cfg := Config{MaxTokens: 60, OverlapTokens: 10}
	parts := Split(large, cfg)
	if len(parts) < 2 {
		t.Fatalf("expected several passages, got %d", len(parts))
	}
	for i, p := range parts {
		if n := EstimateTokens(p); n > cfg.MaxTokens*2 {
			t.Errorf("passage %d: %d tokens exceeds 2x target", i, n)
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if parts := Split("  \n\n ", DefaultConfig()); len(parts) != 0 {
		t.Errorf("expected no passages, got %v", parts)
	}
}

func TestTrim_KeepsWholeSentences(t *testing.T) {
	text := "First sentence here. Second sentence is here. Third sentence also here."
	got := Trim(text, 9)
	if got != "First sentence here. Second sentence is here." {
		t.Errorf("unexpected trim %q", got)
	}
	if got := Trim(text, 1000); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestTrim_LongFirstSentenceCutAtWord(t *testing.T) {
	text := strings.Repeat("alpha ", 50) + "end."
	got := Trim(text, 8)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if n := len(strings.Fields(strings.TrimSuffix(got, "..."))); n != 6 {
		t.Errorf("expected 6 words kept, got %d", n)
	}
}

func TestBest_PicksMostRelevantPassage(t *testing.T) {
	text := "Birds nest in reeds near the shore.\n\n" +
		"Sampling methods for graduate researchers used mist nets.\n\n" +
		"Funding came from a regional trust."
	kw := Keywords("graduate researcher needs sampling methods")
	got := Best(text, kw, Config{MaxTokens: 12})
	if !strings.Contains(got, "mist nets") {
		t.Errorf("expected the sampling passage, got %q", got)
	}
	if Best("", kw, DefaultConfig()) != "" {
		t.Error("expected empty excerpt for empty text")
	}
}
