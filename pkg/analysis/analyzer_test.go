package analysis

import "testing"

func TestSummarizeTakesFirstTwoSentences(t *testing.T) {
	s := NewSummarizer()
	got := s.Summarize("Luffy saw Zoro. Zoro ate meat. Then they sailed on.")
	want := "Luffy saw Zoro. Zoro ate meat."
	if got != want {
		t.Fatalf("Summarize() = %q, want %q", got, want)
	}
}

func TestSummarizeFallsBackToCharLimitWithoutSentences(t *testing.T) {
	s := NewSummarizer()
	long := make([]byte, maxSummaryChars+50)
	for i := range long {
		long[i] = 'a'
	}
	got := s.Summarize(string(long))
	if len(got) != maxSummaryChars {
		t.Fatalf("expected summary truncated to %d chars, got %d", maxSummaryChars, len(got))
	}
}

func TestSummarizeShortTextReturnedVerbatim(t *testing.T) {
	s := NewSummarizer()
	got := s.Summarize("just a few words")
	if got != "just a few words" {
		t.Fatalf("Summarize() = %q, want verbatim passthrough", got)
	}
}

func TestSummarizeSingleSentence(t *testing.T) {
	s := NewSummarizer()
	got := s.Summarize("Only one sentence here.")
	if got != "Only one sentence here." {
		t.Fatalf("Summarize() = %q, want the single sentence unchanged", got)
	}
}
