// Package textutil holds the text helpers shared by the transcription and
// translation stages: transcript normalization, language detection and
// chunking for length-limited translation backends.
package textutil
