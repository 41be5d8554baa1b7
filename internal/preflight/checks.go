package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"dubline/internal/config"
	"dubline/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the space available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckDiskSpace verifies at least minFree bytes are available at path. A
// zero minimum always passes.
func CheckDiskSpace(name, path string, minFree uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%.1f GiB free", float64(free)/(1<<30))
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %.1f GiB", detail, float64(minFree)/(1<<30))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external tools required by cfg. Wav2Lip is
// only required while lip sync is enabled.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Required for audio extraction and remux"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Required for audio quality checks"},
		{Name: "Whisper", Command: cfg.Tools.Whisper, Description: "Required for transcription"},
		{Name: "Coqui TTS", Command: cfg.Tools.TTS, Description: "Required for voice synthesis"},
	}
	if cfg.LipSync.Enabled {
		checkpoint := cfg.Tools.Wav2LipCheckpoint
		if checkpoint != "" && !filepath.IsAbs(checkpoint) {
			checkpoint = filepath.Join(cfg.Tools.Wav2LipDir, checkpoint)
		}
		requirements = append(requirements,
			deps.Requirement{Name: "Python", Command: cfg.Tools.Python, Description: "Runs Wav2Lip inference"},
			deps.Requirement{Name: "Wav2Lip script", Command: filepath.Join(cfg.Tools.Wav2LipDir, "inference.py"), Kind: deps.File, Description: "Lip sync inference entry point"},
			deps.Requirement{Name: "Wav2Lip checkpoint", Command: checkpoint, Kind: deps.File, Description: "Lip sync model weights"},
		)
	}
	return deps.Check(requirements)
}
