package generator

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	markdownRe     = regexp.MustCompile("[*_`#]")
	escapedQuoteRe = regexp.MustCompile(`\\"`)
	hashtagJunkRe  = regexp.MustCompile(`[#\s]`)
	blankLineRe    = regexp.MustCompile(`\n\s*\n`)
)

// CleanPostText strips HTML tags, markdown formatting and JSON escape
// artifacts from generated text and normalizes whitespace
func CleanPostText(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTagRe.ReplaceAllString(text, "")
	text = markdownRe.ReplaceAllString(text, "")
	text = escapedQuoteRe.ReplaceAllString(text, `"`)

	return strings.Join(strings.Fields(text), " ")
}

// FormatHashtag normalizes a hashtag to its bare lowercase form
func FormatHashtag(tag string) string {
	return strings.ToLower(hashtagJunkRe.ReplaceAllString(tag, ""))
}

// SplitThread breaks long-form output into thread parts on blank lines.
// Parts are cleaned individually; a single-part result means the text is
// not a thread.
func SplitThread(text string) []string {
	parts := blankLineRe.Split(text, -1)

	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if c := CleanPostText(part); c != "" {
			cleaned = append(cleaned, c)
		}
	}

	return cleaned
}
