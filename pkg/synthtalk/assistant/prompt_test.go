package assistant

import (
	"strings"
	"testing"
)

func TestComposePromptMinimal(t *testing.T) {
	t.Parallel()

	got := ComposePrompt("You are a helpful research assistant.", "", "", "Hello", FeedbackSignal{})
	want := "You are a helpful research assistant.\n\nUSER MESSAGE: Hello\n\nRESPONSE:"
	if got != want {
		t.Errorf("minimal prompt mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestComposePromptOmitsEmptyBlocks(t *testing.T) {
	t.Parallel()

	got := ComposePrompt("", "   \n  ", "\t", "Hello", FeedbackSignal{})
	if strings.Contains(got, "CONTEXT:") {
		t.Error("whitespace-only context must not produce a CONTEXT block")
	}
	if strings.Contains(got, "REASONING ANALYSIS:") {
		t.Error("whitespace-only reasoning must not produce a REASONING ANALYSIS block")
	}
	if !strings.HasPrefix(got, DefaultInstructions) {
		t.Error("empty instructions should fall back to the default preamble")
	}
	if !strings.HasSuffix(got, "RESPONSE:") {
		t.Error("prompt must end with the RESPONSE cue")
	}
}

func TestComposePromptBlockOrder(t *testing.T) {
	t.Parallel()

	feedback := FeedbackSignal{
		ThumbsDown: []WordCount{{"unfortunately", 4}},
		ThumbsUp:   []WordCount{{"sources", 3}},
	}
	got := ComposePrompt("SYS", "some context", "some reasoning", "question?", feedback)

	markers := []string{
		"SYS",
		"CONTEXT:\nsome context",
		"REASONING ANALYSIS:\nsome reasoning",
		"USER MESSAGE: question?",
		"avoid them: unfortunately",
		"well received: sources",
		"RESPONSE:",
	}
	last := -1
	for _, marker := range markers {
		idx := strings.Index(got, marker)
		if idx == -1 {
			t.Fatalf("prompt missing %q:\n%s", marker, got)
		}
		if idx < last {
			t.Fatalf("block %q out of order:\n%s", marker, got)
		}
		last = idx
	}
	if strings.Count(got, "\n\n") < len(markers)-1 {
		t.Errorf("blocks should be separated by blank lines:\n%s", got)
	}
}

func TestComposePromptFeedbackThreshold(t *testing.T) {
	t.Parallel()

	feedback := FeedbackSignal{
		ThumbsDown: []WordCount{{"bad", 2}},
	}
	got := ComposePrompt("SYS", "", "", "hi", feedback)
	if strings.Contains(got, "avoid") {
		t.Errorf("words at count 2 must not surface in the prompt:\n%s", got)
	}
}

func TestComposePromptDeterministic(t *testing.T) {
	t.Parallel()

	feedback := FeedbackSignal{ThumbsUp: []WordCount{{"clear", 5}, {"cited", 3}}}
	first := ComposePrompt("SYS", "ctx", "why", "msg", feedback)
	for i := 0; i < 3; i++ {
		if ComposePrompt("SYS", "ctx", "why", "msg", feedback) != first {
			t.Fatal("composition must be deterministic")
		}
	}
}
