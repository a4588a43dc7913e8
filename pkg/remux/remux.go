package remux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"igfetch/pkg/config"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/logger"
)

// DefaultFFmpeg is the multiplexer binary looked up on PATH
const DefaultFFmpeg = "ffmpeg"

// Runner executes an external command, writing its stderr to stderr
type Runner interface {
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

// Remuxer merges a video and an audio elementary stream into one MP4 without re-encoding
type Remuxer struct {
	ffmpegPath string
	tempDir    string
	runner     Runner
	logger     logger.Logger
}

// Option configures a Remuxer
type Option func(*Remuxer)

// WithRunner replaces the process runner
func WithRunner(r Runner) Option {
	return func(m *Remuxer) { m.runner = r }
}

// New creates a Remuxer from the remux configuration
func New(cfg config.RemuxConfig, log logger.Logger, opts ...Option) *Remuxer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	path := cfg.FFmpegPath
	if path == "" {
		path = DefaultFFmpeg
	}

	m := &Remuxer{
		ffmpegPath: path,
		tempDir:    cfg.TempDirectory,
		runner:     execRunner{},
		logger:     log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether the configured ffmpeg binary can be found
func (m *Remuxer) Available() error {
	if _, err := exec.LookPath(m.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found (%s): %w", m.ffmpegPath, err)
	}
	return nil
}

// BuildArgs returns the ffmpeg arguments that copy input 0's video and input 1's audio into output
func BuildArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-f", "mp4",
		outputPath,
	}
}

// Remux writes video and audio to operation-scoped temp files, runs ffmpeg and
// moves the result to outputPath. Temp files are removed on every path.
func (m *Remuxer) Remux(ctx context.Context, video, audio []byte, outputPath string) error {
	id := newOperationID()
	dir := m.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	videoPath := filepath.Join(dir, "igfetch-"+id+"-video.mp4")
	audioPath := filepath.Join(dir, "igfetch-"+id+"-audio.mp4")
	partPath := outputPath + "." + id + ".part"

	if err := writeExclusive(videoPath, video); err != nil {
		return fmt.Errorf("write video temp file: %w", err)
	}
	defer os.Remove(videoPath)

	if err := writeExclusive(audioPath, audio); err != nil {
		return fmt.Errorf("write audio temp file: %w", err)
	}
	defer os.Remove(audioPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := m.logger.WithFields(map[string]interface{}{
		"operation": id,
		"output":    outputPath,
	})
	log.DebugWithFields("running ffmpeg", map[string]interface{}{
		"video_bytes": len(video),
		"audio_bytes": len(audio),
	})

	var stderr bytes.Buffer
	if err := m.runner.Run(ctx, m.ffmpegPath, BuildArgs(videoPath, audioPath, partPath), &stderr); err != nil {
		os.Remove(partPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		rerr := errs.NewRemuxError(code, stderr.String(), err)
		log.WithError(rerr).Debug("ffmpeg failed")
		return rerr
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return errs.Wrap(errs.ErrorTypeRemux, "move remuxed output into place", err)
	}
	return nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

func newOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
