package services

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline-level markers. Every error that leaves a stage carries exactly one
// of these so the orchestrator can classify it.
var (
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrExternalTool           = errors.New("external tool failure")
	ErrOutputMissing          = errors.New("output missing")
	ErrTranslationUnavailable = errors.New("translation unavailable")
	ErrInternalInconsistency  = errors.New("internal inconsistency")
)

// Capability markers reported by the external tool clients.
var (
	ErrToolUnavailable     = errors.New("tool unavailable")
	ErrExtractionFailed    = errors.New("audio extraction failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrSynthesisFailed     = errors.New("voice synthesis failed")
	ErrSyncFailed          = errors.New("lip sync failed")
	ErrRemuxFailed         = errors.New("audio remux failed")
)

// Kind is the outcome class of a failed stage.
type Kind string

const (
	KindNone                   Kind = ""
	KindPreconditionFailed     Kind = "precondition_failed"
	KindExternalTool           Kind = "external_tool_failure"
	KindOutputMissing          Kind = "output_missing"
	KindTranslationUnavailable Kind = "translation_unavailable"
	KindInternalInconsistency  Kind = "internal_inconsistency"
)

var kindMarkers = []struct {
	kind   Kind
	marker error
}{
	{KindPreconditionFailed, ErrPreconditionFailed},
	{KindOutputMissing, ErrOutputMissing},
	{KindTranslationUnavailable, ErrTranslationUnavailable},
	{KindInternalInconsistency, ErrInternalInconsistency},
	{KindExternalTool, ErrExternalTool},
}

// KindOf classifies err. Errors without a pipeline marker are treated as
// external tool failures since they originate outside the orchestrator.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	return KindExternalTool
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
