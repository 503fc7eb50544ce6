// Package textutil provides text manipulation helpers used across agentlab:
// truncation, markdown handling, and fenced block extraction.
package textutil

import (
	"regexp"
	"strings"
)

var (
	codeBlockRe  = regexp.MustCompile("(?s)```(?:\\w*\\n)?(.*?)```")
	headerRe     = regexp.MustCompile(`#+\s+(.*?)\n`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	linkRe       = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	fencedRe     = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`(.*?)`")
)

// Truncate shortens text to at most max characters, ending with an ellipsis
// when anything was cut. For max of 3 or less the result is all dots.
func Truncate(text string, max int) string {
	if text == "" || len(text) <= max {
		return text
	}
	if max <= 3 {
		return strings.Repeat(".", max)
	}
	return text[:max-3] + "..."
}

// ExtractCodeBlocks returns the contents of all fenced code blocks in the
// given markdown text, in order, with surrounding whitespace trimmed.
func ExtractCodeBlocks(markdown string) []string {
	matches := codeBlockRe.FindAllStringSubmatch(markdown, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}

// ExtractFenced returns the content of the first fenced block whose opening
// fence carries the given tag, e.g. tag "PLAN" matches ```PLAN ... ```.
// The second return is false when no such block exists.
func ExtractFenced(text, tag string) (string, bool) {
	marker := "```" + tag
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// StripMarkdown removes common markdown formatting, leaving plain text.
// Fenced code blocks are dropped entirely.
func StripMarkdown(markdown string) string {
	text := headerRe.ReplaceAllString(markdown, "$1\n")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = fencedRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	return text
}
