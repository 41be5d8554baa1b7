// Package wav2lip re-syncs lip movement in a video to a new audio track by
// running the Wav2Lip inference script. Progress is read from the tqdm bars
// the script prints and reported as a fraction in [0,1].
package wav2lip

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"dubline/internal/logging"
	"dubline/internal/services"
)

// Options configure the Wav2Lip runner.
type Options struct {
	Python     string
	Dir        string
	Checkpoint string
}

// Client runs inference.py.
type Client struct {
	opts     Options
	executor services.Executor
	logger   *slog.Logger
}

var qualityArgs = map[string][]string{
	"fast":     {"--resize_factor", "2", "--nosmooth"},
	"standard": nil,
	"high":     {"--pads", "0", "20", "0", "0", "--wav2lip_batch_size", "64"},
}

// New returns a lip-sync client. A nil executor runs processes inside
// opts.Dir.
func New(opts Options, executor services.Executor, logger *slog.Logger) *Client {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = "python3"
	}
	if executor == nil {
		executor = services.CommandExecutor{Dir: opts.Dir}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{opts: opts, executor: executor, logger: logger}
}

// Sync runs inference. progress, when non-nil, receives monotonically
// increasing fractions on the calling goroutine of the executor.
func (c *Client) Sync(ctx context.Context, req services.LipSyncRequest, progress func(float64)) error {
	checkpoint := c.opts.Checkpoint
	if checkpoint != "" && !filepath.IsAbs(checkpoint) {
		checkpoint = filepath.Join(c.opts.Dir, checkpoint)
	}
	args := []string{
		filepath.Join(c.opts.Dir, "inference.py"),
		"--checkpoint_path", checkpoint,
		"--face", req.Video,
		"--audio", req.Audio,
		"--outfile", req.Output,
	}
	args = append(args, qualityArgs[strings.ToLower(req.Quality)]...)

	parser := newProgressParser(2)
	sampler := logging.NewProgressSampler(25)
	logger := logging.WithContext(ctx, c.logger)
	onLine := func(line string) {
		fraction, ok := parser.Feed(line)
		if !ok {
			return
		}
		if sampler.ShouldLog(fraction * 100) {
			logger.Debug("lip sync progress", logging.Float64("fraction", fraction))
		}
		if progress != nil {
			progress(fraction)
		}
	}
	if err := c.executor.Run(ctx, c.opts.Python, args, onLine); err != nil {
		return services.Wrap(services.ErrSyncFailed, "wav2lip", "inference", req.Video, err)
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

var tqdmPercent = regexp.MustCompile(`(\d{1,3})%\|`)

// progressParser folds consecutive tqdm bars into one fraction. Wav2Lip
// prints a face detection bar followed by the inference bar; a percentage
// lower than the previous one starts the next phase.
type progressParser struct {
	phases int
	phase  int
	last   int
	best   float64
}

func newProgressParser(phases int) *progressParser {
	return &progressParser{phases: max(phases, 1)}
}

// Feed parses one output line and returns the overall fraction when it moved
// forward.
func (p *progressParser) Feed(line string) (float64, bool) {
	match := tqdmPercent.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(match[1])
	if err != nil || pct > 100 {
		return 0, false
	}
	if pct < p.last && p.phase < p.phases-1 {
		p.phase++
	}
	p.last = pct
	fraction := (float64(p.phase) + float64(pct)/100) / float64(p.phases)
	if fraction <= p.best {
		return 0, false
	}
	p.best = min(fraction, 1)
	return p.best, true
}
