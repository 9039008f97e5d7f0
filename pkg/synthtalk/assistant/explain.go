// Package assistant – explain.go turns existing content into
// beginner-level explanations or expanded clarifications via the
// provider chain, with deterministic fallbacks when the chain returns
// an apology.
package assistant

import (
	"context"
	"strings"

	"github.com/avianto/synthtalk/pkg/synthtalk/textutil"
)

const explainContentMax = 2000

// Explain asks the provider chain for a simple explanation of content.
// If the chain cannot produce one, a deterministic fallback derived
// from the content itself is returned instead.
func (a *Assistant) Explain(ctx context.Context, content string) string {
	prompt := "Please explain the following text to a complete beginner in simple, easy-to-understand terms. " +
		"Use everyday language and avoid technical jargon where possible. Break down complex concepts into simple explanations.\n\n" +
		"Text to explain:\n" + cleanExplainInput(content) + "\n\nSimple explanation:"

	response := a.chain.GetResponse(ctx, prompt)
	if strings.TrimSpace(response) == "" || strings.HasPrefix(response, apologyPrefix) {
		return simpleExplanation(content)
	}
	return strings.TrimSpace(response)
}

// Clarify asks the provider chain to expand content with background and
// examples, falling back to a length-based canned note on failure.
func (a *Assistant) Clarify(ctx context.Context, content string) string {
	prompt := "Please provide additional context, details, and clarification for the following text. " +
		"Add background information, expand on key concepts, and provide any relevant examples or connections that would help someone understand this better.\n\n" +
		"Text to clarify:\n" + cleanExplainInput(content) + "\n\nAdditional context and clarification:"

	response := a.chain.GetResponse(ctx, prompt)
	if strings.TrimSpace(response) == "" || strings.HasPrefix(response, apologyPrefix) {
		return simpleClarification(content)
	}
	return strings.TrimSpace(response)
}

// cleanExplainInput collapses whitespace and caps the content length so
// the prompt stays within provider limits.
func cleanExplainInput(content string) string {
	clean := textutil.CollapseWhitespace(content)
	if len(clean) > explainContentMax {
		clean = clean[:explainContentMax] + "..."
	}
	return clean
}

// simpleExplanation builds a fallback from the content's first two
// substantial sentences.
func simpleExplanation(text string) string {
	var meaningful []string
	for _, sentence := range textutil.SplitSentences(text) {
		if len(strings.Fields(sentence)) >= 4 {
			meaningful = append(meaningful, sentence)
			if len(meaningful) == 2 {
				break
			}
		}
	}
	if len(meaningful) == 0 {
		return "The provided content appears to be complex and would benefit from additional context for a proper explanation."
	}
	return "This content discusses: " + strings.Join(meaningful, ". ") +
		". For a more detailed explanation, please try again when the system is fully available."
}

// simpleClarification picks a canned note by content length.
func simpleClarification(text string) string {
	switch wordCount := len(strings.Fields(text)); {
	case wordCount < 10:
		return "This appears to be a brief statement that could benefit from additional context and examples to fully understand its implications."
	case wordCount < 50:
		return "This content covers several key points that could be expanded with more background information, examples, and related concepts."
	default:
		return "This is a comprehensive text that touches on multiple concepts. Additional clarification could include background context, detailed explanations of key terms, and practical examples."
	}
}
