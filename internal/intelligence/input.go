package intelligence

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputChars is the hard ceiling on user input length, in characters.
const MaxInputChars = 10000

// suspiciousPatterns are advisory markers of prompt-injection attempts.
// Matches are logged for monitoring, never rejected: injection defense is
// handled at the prompt structure level with salted delimiters, so a text
// about prompt injection can still become a presentation about it.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)\[INST\]`),
	regexp.MustCompile(`(?i)<<SYS>>`),
	regexp.MustCompile(`(?i)role:\s*(system|assistant)`),
}

// InputValidator validates user text input before it reaches the LLM.
type InputValidator struct{}

// Validate checks hard input constraints and returns the text unchanged.
// Empty (after trimming) or over-length input fails with an
// InputValidationError.
func (InputValidator) Validate(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &InputValidationError{Reason: "input text cannot be empty"}
	}
	if n := utf8.RuneCountInString(text); n > MaxInputChars {
		return "", &InputValidationError{
			Reason: fmt.Sprintf("input text exceeds maximum length of %d characters (got %d)", MaxInputChars, n),
		}
	}
	return text, nil
}

// SuspiciousPatterns returns the source patterns that match the text.
// Results feed warning logs only.
func (InputValidator) SuspiciousPatterns(text string) []string {
	var matches []string
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			matches = append(matches, p.String())
		}
	}
	return matches
}
