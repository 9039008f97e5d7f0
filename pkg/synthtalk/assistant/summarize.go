// Package assistant – summarize.go produces extractive summaries of
// text or a session's documents in three formats. No LLM involved;
// summaries are deterministic sentence selections.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/avianto/synthtalk/pkg/synthtalk/store"
	"github.com/avianto/synthtalk/pkg/synthtalk/textutil"
)

// SummaryFormat selects the shape of a generated summary.
type SummaryFormat string

const (
	SummaryBullet    SummaryFormat = "bullet"
	SummaryParagraph SummaryFormat = "paragraph"
	SummaryInsight   SummaryFormat = "insight"
)

var insightKeywordRe = regexp.MustCompile(`(?i)\b(important|key|notable|critical)\b`)

// Summarize renders text in the requested format. Markdown formatting
// is stripped first so summaries stay plain text. Unknown formats are
// rejected.
func Summarize(text string, format SummaryFormat) (string, error) {
	text = textutil.StripMarkdown(text)
	switch format {
	case SummaryBullet:
		return bulletSummary(text), nil
	case SummaryParagraph:
		return paragraphSummary(text), nil
	case SummaryInsight:
		return insightSummary(text), nil
	default:
		return "", fmt.Errorf("unsupported summary format %q", format)
	}
}

// SummarizeDocuments concatenates a session's document texts and
// summarizes the result.
func SummarizeDocuments(ctx context.Context, st interface {
	DocumentsBySession(ctx context.Context, sessionID string) ([]store.Document, error)
}, sessionID string, format SummaryFormat) (string, error) {
	docs, err := st.DocumentsBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session documents: %w", err)
	}
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	return Summarize(strings.Join(texts, "\n\n"), format)
}

// bulletSummary lists up to five leading sentences as bullets.
func bulletSummary(text string) string {
	var bullets []string
	for _, sentence := range textutil.SplitSentences(text) {
		bullets = append(bullets, "- "+sentence)
		if len(bullets) == 5 {
			break
		}
	}
	return strings.Join(bullets, "\n")
}

// paragraphSummary joins up to three leading sentences into one
// "In summary" paragraph.
func paragraphSummary(text string) string {
	var sentences []string
	for _, sentence := range textutil.SplitSentences(text) {
		sentences = append(sentences, sentence)
		if len(sentences) == 3 {
			break
		}
	}
	return "In summary, " + strings.Join(sentences, " ") + "."
}

// insightSummary surfaces sentences containing emphasis keywords.
func insightSummary(text string) string {
	var insights []string
	for _, sentence := range textutil.SplitSentences(text) {
		if insightKeywordRe.MatchString(sentence) {
			insights = append(insights, sentence)
		}
	}
	if len(insights) == 0 {
		insights = []string{"No specific insights found in the text."}
	}
	for i, insight := range insights {
		insights[i] = "Key insight: " + insight
	}
	return strings.Join(insights, "\n")
}
