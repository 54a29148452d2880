package utils

import (
	"regexp"
	"strings"
)

// asciiSpace matches runs of ASCII whitespace only, so non-breaking spaces
// survive for the normalizer to see.
var asciiSpace = regexp.MustCompile(`[ \t\r\n\f\v]+`)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// CollapseASCIISpace collapses ASCII whitespace runs to one space and trims.
func (s *StringHelper) CollapseASCIISpace(str string) string {
	return strings.Trim(asciiSpace.ReplaceAllString(str, " "), " ")
}

// TruncateString truncates string to max length in runes.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	runes := []rune(str)
	if len(runes) <= maxLength {
		return str
	}

	return string(runes[:maxLength]) + "..."
}
