// Package textutil provides small text-processing helpers shared across
// the assistant: markdown stripping for plain-text output and sentence
// splitting for the deterministic summary formats.
package textutil

import (
	"regexp"
	"strings"
)

var (
	mdBold       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic     = regexp.MustCompile(`\*(.*?)\*`)
	mdBoldUnder  = regexp.MustCompile(`__(.*?)__`)
	mdItalUnder  = regexp.MustCompile(`_(.*?)_`)
	mdHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	mdBlockquote = regexp.MustCompile(`(?m)^>\s+(.+)$`)
	mdCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\n(.*?)\n```")
	mdInlineCode = regexp.MustCompile("`(.*?)`")
	mdBulletList = regexp.MustCompile(`(?m)^\s*[-*+]\s+(.+)$`)
	mdNumberList = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+)$`)
	mdLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// StripMarkdown removes markdown formatting while keeping the content.
// Bullet lists are converted to "• " items, links become "text (url)".
func StripMarkdown(text string) string {
	if text == "" {
		return text
	}

	text = mdBold.ReplaceAllString(text, "$1")
	text = mdItalic.ReplaceAllString(text, "$1")
	text = mdBoldUnder.ReplaceAllString(text, "$1")
	text = mdItalUnder.ReplaceAllString(text, "$1")
	text = mdHeader.ReplaceAllString(text, "$1")
	text = mdBlockquote.ReplaceAllString(text, "$1")
	text = mdCodeBlock.ReplaceAllString(text, "$1")
	text = mdInlineCode.ReplaceAllString(text, "$1")
	text = mdBulletList.ReplaceAllString(text, "• $1")
	text = mdNumberList.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1 ($2)")

	return text
}

// SplitSentences splits text on sentence-ending punctuation and returns
// the trimmed non-empty pieces.
func SplitSentences(text string) []string {
	parts := regexp.MustCompile(`[.!?]+`).Split(text, -1)
	var sentences []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// CollapseWhitespace replaces runs of whitespace with a single space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
