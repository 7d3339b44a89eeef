package assistant

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("```[a-zA-Z]*")

// CleanAnswer strips markdown artifacts the model tends to emit despite
// instructions: code fences, headings, bold markers. Leading list stars
// become bullets.
func CleanAnswer(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "###", "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "* ", "• ")
	return strings.TrimSpace(text)
}
