package textutil

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// Detection is the outcome of language detection on a text sample.
type Detection struct {
	Tag        language.Tag
	Confidence float64
	Reliable   bool
}

// DetectLanguage guesses the language of text. Unknown languages yield
// language.Und.
func DetectLanguage(text string) Detection {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	tag := language.Und
	if code != "" {
		if parsed, err := language.Parse(code); err == nil {
			tag = parsed
		}
	}
	return Detection{Tag: tag, Confidence: info.Confidence, Reliable: info.IsReliable()}
}

// SameBaseLanguage reports whether two tags share a base language.
func SameBaseLanguage(a, b language.Tag) bool {
	baseA, _ := a.Base()
	baseB, _ := b.Base()
	return baseA == baseB
}
