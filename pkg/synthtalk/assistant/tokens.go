// Package assistant – tokens.go implements token counting and budget
// trimming. Two mechanisms coexist on purpose: EstimateTokens is the
// cheap wordCount×1.3 heuristic the context merge uses for running
// totals, while CountTokens/TrimToTokenLimit apply a model-aware
// word-weighting scheme for the precise final trim.
package assistant

import (
	"strings"
	"unicode"
)

// estimateTokensPerWord is the uniform approximation applied by the
// context merge step.
const estimateTokensPerWord = 1.3

// EstimateTokens approximates the token count of text as wordCount×1.3.
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * estimateTokensPerWord
}

// tokenScheme approximates a model tokenizer by word length: a word of
// n characters counts as ceil(n/CharsPerToken) tokens, minimum 1.
type tokenScheme struct {
	CharsPerToken int
}

// defaultScheme is used for unknown model names rather than failing the
// request.
var defaultScheme = tokenScheme{CharsPerToken: 4}

// modelSchemes maps model-name prefixes to their tokenizer scheme.
// Longest prefix wins.
var modelSchemes = map[string]tokenScheme{
	"gpt-4o":  {CharsPerToken: 4},
	"gpt-4":   {CharsPerToken: 4},
	"gpt-3.5": {CharsPerToken: 4},
	"llama":   {CharsPerToken: 3},
	"llama3":  {CharsPerToken: 3},
	"mixtral": {CharsPerToken: 3},
	"qwen":    {CharsPerToken: 3},
}

// schemeForModel returns the tokenizer scheme for a model name, falling
// back to the default scheme when the model is unknown.
func schemeForModel(model string) tokenScheme {
	best := ""
	for prefix := range modelSchemes {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return defaultScheme
	}
	return modelSchemes[best]
}

// tokenWeight returns the token count attributed to one word.
func (s tokenScheme) tokenWeight(word string) int {
	n := len(word)
	if n == 0 {
		return 0
	}
	w := (n + s.CharsPerToken - 1) / s.CharsPerToken
	if w < 1 {
		w = 1
	}
	return w
}

// CountTokens returns the token count of text under the given model's
// scheme.
func CountTokens(text, model string) int {
	scheme := schemeForModel(model)
	total := 0
	for _, word := range strings.Fields(text) {
		total += scheme.tokenWeight(word)
	}
	return total
}

// TrimToTokenLimit trims text so its token count under the model's
// scheme is at most maxTokens. Text already within budget is returned
// unchanged. Trimming is prefix-preserving: leading words are kept
// byte-for-byte and the tail is dropped at a word boundary.
func TrimToTokenLimit(text string, maxTokens int, model string) string {
	if maxTokens <= 0 {
		return ""
	}
	scheme := schemeForModel(model)

	total := 0
	cut := 0 // byte offset of the end of the last word that fits
	inWord := false
	wordStart := 0

	flush := func(end int) bool {
		total += scheme.tokenWeight(text[wordStart:end])
		if total > maxTokens {
			return false
		}
		cut = end
		return true
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				if !flush(i) {
					return text[:cut]
				}
				inWord = false
			}
			continue
		}
		if !inWord {
			inWord = true
			wordStart = i
		}
	}
	if inWord && !flush(len(text)) {
		return text[:cut]
	}
	return text
}
