package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTranscript converts text to NFC and collapses runs of whitespace,
// including the line breaks speech-to-text tools emit between segments, into
// single spaces.
func NormalizeTranscript(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
