// Package translation turns transcripts into the target language with a
// primary engine, a backup engine, per-engine chunking and backoff between
// rounds.
//
// Engine failures are logged and absorbed. Only when every round has failed
// does Translate return an error, tagged services.ErrTranslationUnavailable,
// and never with a partial result. Engine implementations live in the
// google, mymemory and openai subpackages.
package translation
