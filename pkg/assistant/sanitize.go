package assistant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeInput flags questions that look like prompt injection or system
// manipulation attempts.
var ErrUnsafeInput = errors.New("assistant: unsafe or potentially malicious input")

var forbiddenPhrases = []string{
	"ignore previous",
	"delete",
	"shutdown",
	"system",
	"run code",
	"eval",
}

// SanitizeQuestion trims the question and rejects known injection phrases.
func SanitizeQuestion(question string) (string, error) {
	lower := strings.ToLower(question)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			return "", fmt.Errorf("%w: contains %q", ErrUnsafeInput, phrase)
		}
	}
	return strings.TrimSpace(question), nil
}
