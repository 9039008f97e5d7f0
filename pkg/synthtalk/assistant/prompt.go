// Package assistant – prompt.go renders the final LLM prompt. The
// block order is fixed and omitted blocks leave no placeholder, so the
// composed text is fully determined by its inputs.
package assistant

import (
	"strings"
)

// DefaultInstructions is the system preamble used when the
// configuration does not override it.
const DefaultInstructions = `You are SynthesisTalk, an intelligent research assistant. You help users by:

1. 📚 Analyzing uploaded documents and extracting key insights
2. 🔍 Searching the web for current information when needed
3. 💡 Synthesizing information from multiple sources
4. 🎯 Providing clear, well-structured responses
5. 🔗 Maintaining context across conversations

When responding:
- Be concise but comprehensive
- Cite sources when referencing specific information
- Ask clarifying questions if the request is ambiguous
- Offer to search for additional information if needed
- Maintain conversation context and remember previous discussions`

// ComposePrompt renders: system preamble, optional CONTEXT block,
// optional REASONING ANALYSIS block, the user message, optional
// feedback-derived style notes, and the trailing RESPONSE cue, joined
// by blank lines. An empty instructions argument selects
// DefaultInstructions.
func ComposePrompt(instructions, contextText, reasoningText, userMessage string, feedback FeedbackSignal) string {
	if instructions == "" {
		instructions = DefaultInstructions
	}

	parts := []string{instructions}

	if trimmed := strings.TrimSpace(contextText); trimmed != "" {
		parts = append(parts, "CONTEXT:\n"+contextText)
	}
	if trimmed := strings.TrimSpace(reasoningText); trimmed != "" {
		parts = append(parts, "REASONING ANALYSIS:\n"+reasoningText)
	}

	parts = append(parts, "USER MESSAGE: "+userMessage)

	if avoid := feedback.AvoidPhrases(); len(avoid) > 0 {
		parts = append(parts, "NOTE: Previous responses containing these words were poorly received; avoid them: "+strings.Join(avoid, ", "))
	}
	if encourage := feedback.EncouragePhrases(); len(encourage) > 0 {
		parts = append(parts, "NOTE: Previous responses containing these words were well received: "+strings.Join(encourage, ", "))
	}

	parts = append(parts, "RESPONSE:")
	return strings.Join(parts, "\n\n")
}
