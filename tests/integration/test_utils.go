package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"igfetch/pkg/config"
	"igfetch/pkg/dash"
	"igfetch/pkg/fetch"
	"igfetch/pkg/history"
	"igfetch/pkg/instagram"
	"igfetch/pkg/logger"
	"igfetch/pkg/media"
	"igfetch/pkg/ratelimit"
	"igfetch/pkg/remux"
	"igfetch/pkg/retry"
	"igfetch/pkg/scraper"
)

// TestHelper wires a real scraper against a MockInstagramServer
type TestHelper struct {
	t       *testing.T
	Server  *MockInstagramServer
	Config  *config.Config
	Runner  *FakeFFmpeg
	Logger  *logger.TestLogger
	History *history.Manager
	tempDir string
}

// NewTestHelper starts a mock server and prepares a config writing under a temp dir
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	tempDir := t.TempDir()
	server := NewMockInstagramServer()
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.Instagram.SessionID = "integration-session"
	cfg.Instagram.CSRFToken = "integration-csrf"
	cfg.Output.BaseDirectory = filepath.Join(tempDir, "downloads")
	cfg.Remux.TempDirectory = filepath.Join(tempDir, "tmp")
	cfg.Download.Timeout = 5 * time.Second
	cfg.RateLimit.RequestsPerMinute = 6000
	cfg.RateLimit.BurstSize = 100
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond

	if err := os.MkdirAll(cfg.Remux.TempDirectory, 0755); err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	hist, err := history.NewManager(filepath.Join(tempDir, "history.json"), nil)
	if err != nil {
		t.Fatalf("Failed to create history: %v", err)
	}

	return &TestHelper{
		t:       t,
		Server:  server,
		Config:  cfg,
		Runner:  &FakeFFmpeg{},
		Logger:  logger.NewTestLogger(),
		History: hist,
		tempDir: tempDir,
	}
}

// NewScraper builds the production component chain, pointed at the mock server
// and using the fake ffmpeg runner
func (h *TestHelper) NewScraper() *scraper.Scraper {
	cfg := h.Config

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client := fetch.NewClient(cfg.Download.Timeout, h.Logger,
		fetch.WithLimiter(limiter),
		fetch.WithHeaders(instagram.Headers(cfg.Instagram)),
	)
	fetcher := fetch.NewRetrying(client, retry.PolicyFromConfig(cfg.Retry, h.Logger))

	muxer := remux.New(cfg.Remux, h.Logger, remux.WithRunner(h.Runner))
	var pipeOpts []dash.PipelineOption
	if !cfg.Download.ParallelStreams {
		pipeOpts = append(pipeOpts, dash.WithSequentialStreams())
	}
	pipeline := dash.NewPipeline(fetcher, muxer, h.Logger, pipeOpts...)

	resolver := media.NewResolver(fetcher, pipeline, h.Logger, media.Options{
		Overwrite:           cfg.Output.OverwriteExisting,
		SkipVideos:          cfg.Download.SkipVideos,
		SkipImages:          cfg.Download.SkipImages,
		CarouselConcurrency: cfg.Download.CarouselConcurrency,
		MaxDepth:            cfg.Download.MaxCarouselDepth,
	})

	source := instagram.NewClient(fetcher, h.Logger, instagram.WithBaseURL(h.Server.GetURL()))
	return scraper.New(source, resolver, h.History, cfg.Output, h.Logger)
}

// PostURL returns the public URL of shortcode
func (h *TestHelper) PostURL(shortcode string) string {
	return instagram.GetPostURL(shortcode)
}

// OutputPath returns the expected location of a file saved for owner
func (h *TestHelper) OutputPath(owner, name string) string {
	return filepath.Join(h.Config.Output.BaseDirectory, owner, name)
}

// ReadOutput reads a saved file, failing the test when it is missing
func (h *TestHelper) ReadOutput(owner, name string) []byte {
	h.t.Helper()
	data, err := os.ReadFile(h.OutputPath(owner, name))
	if err != nil {
		h.t.Fatalf("Expected output %s: %v", name, err)
	}
	return data
}

// TempFiles lists what is left in the remux temp directory
func (h *TestHelper) TempFiles() []string {
	h.t.Helper()
	entries, err := os.ReadDir(h.Config.Remux.TempDirectory)
	if err != nil {
		h.t.Fatalf("Failed to read temp dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// FakeFFmpeg stands in for the ffmpeg binary. It concatenates its two inputs
// into the output path so tests can verify what reached the muxer.
type FakeFFmpeg struct {
	mu    sync.Mutex
	calls [][]string
	Err   error
}

func (f *FakeFFmpeg) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()

	if f.Err != nil {
		fmt.Fprintln(stderr, "Invalid data found when processing input")
		return f.Err
	}

	var inputs []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	if len(inputs) != 2 {
		return fmt.Errorf("expected two inputs, got %d", len(inputs))
	}

	var out []byte
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		out = append(out, data...)
	}
	return os.WriteFile(args[len(args)-1], out, 0644)
}

// Calls returns how many times ffmpeg was invoked
func (f *FakeFFmpeg) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
