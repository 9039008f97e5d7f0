// Package assistant – classify.go maps a user message to a question
// category by keyword matching. The category drives the reasoning
// strategy tables and is reported in the context bundle metadata.
package assistant

import "strings"

// QuestionCategory classifies what kind of answer a message is after.
type QuestionCategory string

const (
	QuestionFactual     QuestionCategory = "factual"
	QuestionAnalytical  QuestionCategory = "analytical"
	QuestionCreative    QuestionCategory = "creative"
	QuestionProcedural  QuestionCategory = "procedural"
	QuestionComparative QuestionCategory = "comparative"
)

// categoryKeywords lists the trigger keywords per category, in the fixed
// order the categories are tested. A message matching several sets gets
// the first one — the order is a deliberate tie-break, not cosmetic.
var categoryKeywords = []struct {
	category QuestionCategory
	keywords []string
}{
	{QuestionAnalytical, []string{"analyze", "compare", "contrast", "evaluate", "assess", "why", "how", "explain"}},
	{QuestionProcedural, []string{"how to", "step", "process", "procedure", "method", "guide"}},
	{QuestionCreative, []string{"create", "generate", "design", "brainstorm", "imagine", "suggest"}},
	{QuestionComparative, []string{"vs", "versus", "better", "difference", "similar", "compare"}},
}

// ClassifyQuestion returns the question category for a message. Matching
// is case-insensitive substring containment; messages matching nothing
// default to factual. Pure — no I/O, no state.
func ClassifyQuestion(message string) QuestionCategory {
	lower := strings.ToLower(message)
	for _, set := range categoryKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.category
			}
		}
	}
	return QuestionFactual
}
