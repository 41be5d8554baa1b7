package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"dubline/internal/fileutil"
	"dubline/internal/media/wavcheck"
)

func writeText(path, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty text")
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func validateWAV(path string) error {
	return wavcheck.Validate(path)
}

func publishArtifact(src, dir, name string) (string, error) {
	return fileutil.Publish(src, dir, name)
}

func videoExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ".mp4"
	}
	return ext
}

// finalVideoName derives "<source stem>.<target>.<ext>" from the input path.
func finalVideoName(inputPath string, target language.Tag) string {
	base := filepath.Base(inputPath)
	stem := cleanStem(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "video"
	}
	return fmt.Sprintf("%s.%s%s", stem, tagSuffix(target), videoExt(inputPath))
}

// cleanStem keeps a file stem usable on common filesystems. Separators become
// dashes and reserved punctuation is dropped.
func cleanStem(stem string) string {
	stem = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || unicode.IsControl(r):
			return -1
		}
		return r
	}, stem)
	return strings.Trim(stem, " .-")
}

// tagSuffix renders a language tag as a lowercase file suffix such as "ta"
// or "pt-br".
func tagSuffix(tag language.Tag) string {
	if tag == language.Und {
		return "und"
	}
	return strings.ToLower(tag.String())
}
