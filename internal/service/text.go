package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

var (
	mdHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	mdQuote      = regexp.MustCompile(`(?m)^\s{0,3}>\s?`)
	mdBullet     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	mdLink       = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdStrong     = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdEmphasis   = regexp.MustCompile(`(^|[\s(])[*_]([^*_\n]+)[*_]`)
	mdEscape     = regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!>|~"'])`)
	mdBlankLines = regexp.MustCompile(`\n{3,}`)
)

// containsHTML reports whether s appears to contain HTML markup.
func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// plainText converts HTML input (from rich text editors) to narratable lines.
// Paragraphs and line breaks become line breaks; formatting is dropped. Plain
// input is returned trimmed.
func plainText(s string) string {
	if s == "" || !containsHTML(s) {
		return strings.TrimSpace(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return strings.TrimSpace(s)
	}

	text := mdLink.ReplaceAllString(markdown, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdQuote.ReplaceAllString(text, "")
	text = mdBullet.ReplaceAllString(text, "")
	text = mdStrong.ReplaceAllString(text, "$2")
	text = mdEmphasis.ReplaceAllString(text, "$1$2")
	text = mdEscape.ReplaceAllString(text, "$1")
	text = mdBlankLines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// checkText normalizes request text and enforces presence and length.
func checkText(raw string, maxLength int) (string, error) {
	text := plainText(raw)
	if text == "" {
		return "", domainerrors.Validation("No text provided")
	}
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return "", domainerrors.Validationf("text exceeds maximum length of %d characters", maxLength)
	}
	return text, nil
}
