package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk splits text into ordered pieces of at most size runes. Breaks fall on
// the last whitespace inside the window when there is one, and that
// whitespace is dropped, so joining the pieces with a single space restores
// text whose words are separated by single spaces. A window without
// whitespace is cut hard. size <= 0 or text within size yields one chunk.
func Chunk(text string, size int) []string {
	return ChunkBytes(text, size, 0)
}

// ChunkBytes is Chunk with a second ceiling of maxBytes UTF-8 bytes per
// piece, for backends that measure their request limit in bytes. Pieces still
// break between runes, never inside one. maxBytes <= 0 disables the ceiling.
func ChunkBytes(text string, size, maxBytes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)

	var chunks []string
	for len(runes) > 0 {
		limit := window(runes, size, maxBytes)
		if limit >= len(runes) {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		piece := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
		if piece != "" {
			chunks = append(chunks, piece)
		}
		runes = trimLeadingSpace(runes[cut:])
	}
	return chunks
}

// window returns how many leading runes fit in both limits. It is at least
// one so a single oversized rune still makes progress.
func window(runes []rune, size, maxBytes int) int {
	n := len(runes)
	if size > 0 && size < n {
		n = size
	}
	if maxBytes <= 0 {
		return n
	}
	total := 0
	for i := 0; i < n; i++ {
		total += utf8.RuneLen(runes[i])
		if total > maxBytes {
			return max(i, 1)
		}
	}
	return n
}

// JoinChunks concatenates translated pieces with a single separating space.
func JoinChunks(chunks []string) string {
	return strings.Join(chunks, " ")
}

func trimLeadingSpace(runes []rune) []rune {
	for len(runes) > 0 && unicode.IsSpace(runes[0]) {
		runes = runes[1:]
	}
	return runes
}
