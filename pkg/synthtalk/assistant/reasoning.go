// Package assistant – reasoning.go generates the structured reasoning
// narratives surfaced to the user alongside answers. These are
// deterministic templates built from the question category, extracted
// key concepts, and simple context heuristics — narrative-only output
// describing a thought process, not model inference. The section headers
// are part of the user-visible contract and must stay stable.
package assistant

import (
	"fmt"
	"strings"
)

// ReasoningMode selects which narrative structure to generate.
type ReasoningMode string

const (
	ReasoningChainOfThought ReasoningMode = "chain_of_thought"
	ReasoningReAct          ReasoningMode = "react"
	ReasoningHybrid         ReasoningMode = "hybrid"
)

// defaultReasoningTools is the tool set ReAct narratives choose from
// when the caller provides none.
var defaultReasoningTools = []string{"web_search", "document_search", "analysis"}

// conceptStopWords are skipped during key-concept extraction.
var conceptStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
}

// maxKeyConcepts bounds how many concepts a narrative mentions.
const maxKeyConcepts = 10

// Reason generates a reasoning narrative in the requested mode. An
// unrecognized mode is a programmer error and is returned as such.
func Reason(contextText, message string, mode ReasoningMode, category QuestionCategory) (string, error) {
	switch mode {
	case ReasoningChainOfThought:
		return ChainOfThought(contextText, message, category), nil
	case ReasoningReAct:
		return ReAct(contextText, message, nil), nil
	case ReasoningHybrid:
		return Hybrid(contextText, message, nil), nil
	default:
		return "", fmt.Errorf("unknown reasoning mode %q", mode)
	}
}

// extractKeyConcepts pulls up to maxKeyConcepts unique non-stopword
// tokens longer than 3 characters from text, lowercased, in first-seen
// order so output is deterministic.
func extractKeyConcepts(text string) []string {
	var concepts []string
	seen := make(map[string]bool)
	for _, raw := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	}) {
		if len(raw) <= 3 || conceptStopWords[raw] || seen[raw] {
			continue
		}
		seen[raw] = true
		concepts = append(concepts, raw)
		if len(concepts) == maxKeyConcepts {
			break
		}
	}
	return concepts
}

// analyzeIntent derives a one-line intent description from the message.
func analyzeIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "?"):
		return "Seeking information or explanation"
	case containsAny(lower, "help", "how", "guide"):
		return "Requesting assistance or guidance"
	case containsAny(lower, "analyze", "compare", "evaluate"):
		return "Requesting analysis or evaluation"
	default:
		return "General inquiry or discussion"
	}
}

// analyzeContext summarizes context richness and which source markers
// are present.
func analyzeContext(contextText string) []string {
	var insights []string

	switch {
	case len(contextText) > 1000:
		insights = append(insights, "Rich context available with detailed information")
	case len(contextText) > 300:
		insights = append(insights, "Moderate context available")
	default:
		insights = append(insights, "Limited context available")
	}

	if strings.Contains(contextText, "===") {
		insights = append(insights, "Multiple information sources present")
	}
	if strings.Contains(contextText, "📄") {
		insights = append(insights, "Document-based information available")
	}
	if strings.Contains(contextText, "🌐") {
		insights = append(insights, "Web-based information available")
	}
	return insights
}

// reasoningStrategies maps each category to its fixed three-step
// analysis strategy.
var reasoningStrategies = map[QuestionCategory][]string{
	QuestionFactual: {
		"1. Identify specific facts needed",
		"2. Cross-reference available information",
		"3. Provide accurate, verified information",
	},
	QuestionAnalytical: {
		"1. Break down the problem into components",
		"2. Analyze relationships and patterns",
		"3. Synthesize insights and conclusions",
	},
	QuestionProcedural: {
		"1. Identify the goal or outcome",
		"2. Break down into sequential steps",
		"3. Provide clear, actionable instructions",
	},
	QuestionCreative: {
		"1. Generate multiple perspectives",
		"2. Combine ideas in novel ways",
		"3. Provide innovative solutions",
	},
	QuestionComparative: {
		"1. Identify comparison criteria",
		"2. Analyze similarities and differences",
		"3. Provide balanced evaluation",
	},
}

// informationStrategies maps each category to its fixed gathering
// strategy used by ReAct narratives.
var informationStrategies = map[QuestionCategory][]string{
	QuestionFactual: {
		"Search for authoritative sources",
		"Verify information accuracy",
		"Get the most current data",
	},
	QuestionAnalytical: {
		"Gather comprehensive background information",
		"Look for multiple perspectives",
		"Find relevant case studies or examples",
	},
	QuestionProcedural: {
		"Find step-by-step guides",
		"Look for best practices",
		"Search for common pitfalls to avoid",
	},
	QuestionCreative: {
		"Gather inspiration from various sources",
		"Look for innovative approaches",
		"Find diverse examples and ideas",
	},
	QuestionComparative: {
		"Gather information on all items being compared",
		"Find standardized comparison criteria",
		"Look for expert evaluations",
	},
}

func strategyFor(table map[QuestionCategory][]string, category QuestionCategory) []string {
	if steps, ok := table[category]; ok {
		return steps
	}
	return table[QuestionFactual]
}

// recommendTools picks tools for a message by keyword triggers. Falls
// back to web_search when nothing matches.
func recommendTools(message string, available []string) []string {
	lower := strings.ToLower(message)
	has := make(map[string]bool, len(available))
	for _, tool := range available {
		has[tool] = true
	}

	var recommended []string
	if containsAny(lower, "current", "latest", "recent", "now", "today") && has["web_search"] {
		recommended = append(recommended, "web_search")
	}
	if containsAny(lower, "document", "file", "pdf", "text") && has["document_search"] {
		recommended = append(recommended, "document_search")
	}
	if containsAny(lower, "calculate", "compute", "math", "number") && has["calculation"] {
		recommended = append(recommended, "calculation")
	}
	if len(recommended) == 0 {
		return []string{"web_search"}
	}
	return recommended
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func headN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// ChainOfThought produces the four-section structured analysis
// narrative: Problem Analysis, Context Analysis (when context is
// present), Reasoning Strategy, and Information Synthesis.
func ChainOfThought(contextText, message string, category QuestionCategory) string {
	if category == "" {
		category = ClassifyQuestion(message)
	}
	concepts := extractKeyConcepts(message)

	var b strings.Builder
	b.WriteString("🎯 **Problem Analysis:**\n")
	fmt.Fprintf(&b, "   - Question type: %s\n", category)
	fmt.Fprintf(&b, "   - Key concepts: %s\n", strings.Join(headN(concepts, 5), ", "))
	fmt.Fprintf(&b, "   - User intent: %s\n", analyzeIntent(message))

	if strings.TrimSpace(contextText) != "" {
		b.WriteString("\n📚 **Context Analysis:**\n")
		for _, insight := range analyzeContext(contextText) {
			fmt.Fprintf(&b, "   - %s\n", insight)
		}
	}

	fmt.Fprintf(&b, "\n🧠 **Reasoning Strategy for %s question:**\n", category)
	for _, step := range strategyFor(reasoningStrategies, category) {
		fmt.Fprintf(&b, "   %s\n", step)
	}

	b.WriteString("\n🔄 **Information Synthesis:**\n")
	b.WriteString("   - Combining context knowledge with question requirements\n")
	b.WriteString("   - Identifying gaps or areas needing clarification\n")
	b.WriteString("   - Structuring response for clarity and completeness")

	return b.String()
}

// ReAct produces the Thought→Action→Thought→Action→Thought narrative
// simulating an agent's tool-selection cycle. Tools are only named,
// never invoked.
func ReAct(contextText, message string, tools []string) string {
	if tools == nil {
		tools = defaultReasoningTools
	}
	category := ClassifyQuestion(message)
	concepts := extractKeyConcepts(message)

	var b strings.Builder
	b.WriteString("🤔 **Thought 1: Problem Assessment**\n")
	fmt.Fprintf(&b, "   The user is asking about: %s\n", strings.Join(headN(concepts, 3), ", "))
	fmt.Fprintf(&b, "   This appears to be a %s question.\n", category)

	b.WriteString("\n🎯 **Action 1: Information Gathering**\n")
	fmt.Fprintf(&b, "   Need to gather more information using: %s\n",
		strings.Join(recommendTools(message, tools), ", "))

	b.WriteString("\n🤔 **Thought 2: Information Strategy**\n")
	b.WriteString("   Based on the question type, I should:\n")
	for _, step := range strategyFor(informationStrategies, category) {
		fmt.Fprintf(&b, "   - %s\n", step)
	}

	b.WriteString("\n🔍 **Action 2: Information Processing**\n")
	b.WriteString("   - Analyzing available context and information\n")
	b.WriteString("   - Identifying key relationships and patterns\n")
	b.WriteString("   - Structuring information for comprehensive response\n")

	b.WriteString("\n🤔 **Thought 3: Response Strategy**\n")
	b.WriteString("   Now I can provide a comprehensive answer by:\n")
	b.WriteString("   - Using the processed information\n")
	b.WriteString("   - Addressing the specific question type\n")
	b.WriteString("   - Ensuring clarity and completeness")

	return b.String()
}

// Hybrid combines ReAct and ChainOfThought under two phase headers.
// Factual and procedural questions lead with information gathering;
// everything else leads with analysis.
func Hybrid(contextText, message string, tools []string) string {
	category := ClassifyQuestion(message)
	react := ReAct(contextText, message, tools)
	cot := ChainOfThought(contextText, message, category)

	if category == QuestionFactual || category == QuestionProcedural {
		return "**🔄 HYBRID REASONING APPROACH**\n\n" +
			"**Phase 1 - Information & Action Planning:**\n" + react +
			"\n\n**Phase 2 - Analytical Reasoning:**\n" + cot
	}
	return "**🔄 HYBRID REASONING APPROACH**\n\n" +
		"**Phase 1 - Analytical Reasoning:**\n" + cot +
		"\n\n**Phase 2 - Action & Validation:**\n" + react
}
