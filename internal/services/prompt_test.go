package services

import (
	"strings"
	"testing"
)

func TestBuildSummaryPromptTruncatesLongText(t *testing.T) {
	long := strings.Repeat("spice ", 2000) // well past the cap
	prompt, err := BuildSummaryPrompt("Dune", "Frank Herbert", long)
	if err != nil {
		t.Fatalf("BuildSummaryPrompt: %v", err)
	}
	if !strings.Contains(prompt, "Dune") || !strings.Contains(prompt, "Frank Herbert") {
		t.Fatalf("prompt missing book metadata: %q", prompt[:200])
	}
	if len(prompt) > maxPromptTextChars+500 {
		t.Fatalf("prompt length %d, text was not truncated", len(prompt))
	}
}

func TestBuildConsensusPrompt(t *testing.T) {
	prompt, err := BuildConsensusPrompt("Dune", []int{5, 2}, []string{"Loved it.", "Too slow."})
	if err != nil {
		t.Fatalf("BuildConsensusPrompt: %v", err)
	}
	for _, want := range []string{"Dune", "(5/5)", "Loved it.", "(2/5)", "Too slow."} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildConsensusPromptLengthMismatch(t *testing.T) {
	if _, err := BuildConsensusPrompt("Dune", []int{5}, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestBuildConsensusPromptTruncatesCombinedReviews(t *testing.T) {
	long := strings.Repeat("spice ", 10000) // ~60k chars in one review
	prompt, err := BuildConsensusPrompt("Dune", []int{5}, []string{long})
	if err != nil {
		t.Fatalf("BuildConsensusPrompt: %v", err)
	}
	if len(prompt) > maxPromptTextChars+500 {
		t.Fatalf("prompt length %d, review text was not truncated", len(prompt))
	}

	// The budget is shared across reviews: a review past the cutoff is
	// dropped rather than blowing the combined size.
	prompt, err = BuildConsensusPrompt("Dune",
		[]int{5, 2, 4},
		[]string{long, "Too slow.", "Loved the worldbuilding."})
	if err != nil {
		t.Fatalf("BuildConsensusPrompt: %v", err)
	}
	if len(prompt) > maxPromptTextChars+500 {
		t.Fatalf("combined prompt length %d exceeds the budget", len(prompt))
	}
	if strings.Contains(prompt, "Too slow.") {
		t.Fatal("review past the budget was not dropped")
	}
}
