package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func assistantWithChain(chain *Chain) *Assistant {
	return &Assistant{cfg: DefaultConfig(), chain: chain}
}

func TestExplainUsesChainResponse(t *testing.T) {
	t.Parallel()

	srv := completionServer(t, nil, http.StatusOK, "It means prices rise over time.")
	defer srv.Close()

	a := assistantWithChain(NewChain([]ProviderConfig{provider("alpha", srv.URL)}, nil))
	got := a.Explain(context.Background(), "Inflation erodes purchasing power.")
	if got != "It means prices rise over time." {
		t.Errorf("Explain = %q", got)
	}
}

func TestExplainFallsBackWhenChainFails(t *testing.T) {
	t.Parallel()

	a := assistantWithChain(NewChain(nil, nil)) // no providers: apology

	content := "Inflation erodes purchasing power over long horizons. Central banks target a stable rate."
	got := a.Explain(context.Background(), content)
	if !strings.HasPrefix(got, "This content discusses: Inflation erodes purchasing power") {
		t.Errorf("fallback explanation wrong: %q", got)
	}
}

func TestExplainFallbackOnShortContent(t *testing.T) {
	t.Parallel()

	a := assistantWithChain(NewChain(nil, nil))
	got := a.Explain(context.Background(), "Hm. Ok.")
	if !strings.Contains(got, "would benefit from additional context") {
		t.Errorf("short-content fallback wrong: %q", got)
	}
}

func TestClarifyFallbackByLength(t *testing.T) {
	t.Parallel()

	a := assistantWithChain(NewChain(nil, nil))

	short := a.Clarify(context.Background(), "GDP fell.")
	if !strings.Contains(short, "brief statement") {
		t.Errorf("short clarification wrong: %q", short)
	}

	medium := a.Clarify(context.Background(), strings.Repeat("word ", 30))
	if !strings.Contains(medium, "several key points") {
		t.Errorf("medium clarification wrong: %q", medium)
	}

	long := a.Clarify(context.Background(), strings.Repeat("word ", 80))
	if !strings.Contains(long, "comprehensive text") {
		t.Errorf("long clarification wrong: %q", long)
	}
}

func TestCleanExplainInputCapsLength(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("a", 3000)
	got := cleanExplainInput(input)
	if len(got) != explainContentMax+3 {
		t.Errorf("len = %d, want %d", len(got), explainContentMax+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("capped input should end with ellipsis")
	}
}

func TestCleanExplainInputCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	if got := cleanExplainInput("a  b\n\nc\t d"); got != "a b c d" {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}

func TestExplainPromptShape(t *testing.T) {
	t.Parallel()

	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 2 {
			captured = req.Messages[1].Content
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	a := assistantWithChain(NewChain([]ProviderConfig{provider("alpha", srv.URL)}, nil))
	a.Clarify(context.Background(), "Quantitative easing expands the money supply.")

	if !strings.Contains(captured, "Text to clarify:\nQuantitative easing") {
		t.Errorf("clarify prompt shape wrong:\n%s", captured)
	}
	if !strings.HasSuffix(captured, "Additional context and clarification:") {
		t.Errorf("clarify prompt should end with the completion cue:\n%s", captured)
	}
}
