package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"dubline/internal/logging"
	"dubline/internal/queue"
	"dubline/internal/services"
)

// Call performs the capability work, writing the artifact at output.
type Call func(ctx context.Context, output string) error

// Request describes one stage invocation.
type Request struct {
	Stage  queue.Stage
	Inputs []string
	Output string
	// Validate, when set, runs against the produced artifact after the
	// non-empty check.
	Validate func(path string) error
}

// Executor runs stage requests.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor constructs an executor. A nil logger discards output.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{logger: logger}
}

// Run validates inputs, invokes call and verifies the output artifact. The
// returned string is the artifact path.
func (e *Executor) Run(ctx context.Context, req Request, call Call) (string, error) {
	name := string(req.Stage)
	if call == nil {
		return "", services.Wrap(services.ErrInternalInconsistency, name, "run", "no capability bound", nil)
	}
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return "", services.Wrap(services.ErrInternalInconsistency, name, "run", "output path required", nil)
	}
	for _, input := range req.Inputs {
		if err := checkReadable(input); err != nil {
			return "", services.Wrap(services.ErrPreconditionFailed, name, "check input", input, err)
		}
	}

	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("inputs", len(req.Inputs)),
		logging.String("output", output),
	)
	started := time.Now()

	if err := call(ctx, output); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		if errors.Is(err, services.ErrExternalTool) {
			return "", err
		}
		return "", services.Wrap(services.ErrExternalTool, name, "invoke", "", err)
	}

	size, err := checkOutput(output)
	if err != nil {
		logger.Error("stage produced no artifact",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(err),
		)
		return "", services.Wrap(services.ErrOutputMissing, name, "verify output", output, err)
	}
	if req.Validate != nil {
		if err := req.Validate(output); err != nil {
			return "", services.Wrap(services.ErrOutputMissing, name, "validate output", output, err)
		}
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
		logging.Int64("output_bytes", size),
	)
	return output, nil
}

func checkReadable(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// checkOutput returns the size of a non-empty regular file at path.
func checkOutput(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file")
	}
	if info.Size() == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	return info.Size(), nil
}
