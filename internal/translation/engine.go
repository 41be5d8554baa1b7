package translation

import (
	"context"

	"golang.org/x/text/language"
)

// Engine is one translation backend.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text string, source, target language.Tag) (string, error)
}

// ByteLimited is implemented by engines whose per-request limit is measured
// in UTF-8 bytes rather than characters. Chunks sent to them honor both.
type ByteLimited interface {
	MaxBytes() int
}
