package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("Expected default requests per minute to be 60, got %d", config.RateLimit.RequestsPerMinute)
	}
	if config.Download.CarouselConcurrency != 3 {
		t.Errorf("Expected default carousel concurrency to be 3, got %d", config.Download.CarouselConcurrency)
	}
	if config.Download.MaxCarouselDepth != 4 {
		t.Errorf("Expected default max carousel depth to be 4, got %d", config.Download.MaxCarouselDepth)
	}
	if !config.Download.ParallelStreams {
		t.Error("Expected parallel streams by default")
	}
	if config.Output.FileNamePattern != "{username}_{shortcode}" {
		t.Errorf("Unexpected default pattern %s", config.Output.FileNamePattern)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGFETCH_SESSION_ID", "test-session-id")
	t.Setenv("IGFETCH_CSRF_TOKEN", "test-csrf-token")
	t.Setenv("IGFETCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("IGFETCH_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("IGFETCH_CONCURRENT_POSTS", "5")
	t.Setenv("IGFETCH_PARALLEL_STREAMS", "false")
	t.Setenv("IGFETCH_TIMEOUT", "90s")
	t.Setenv("IGFETCH_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Instagram.SessionID != "test-session-id" {
		t.Errorf("Expected session ID to be test-session-id, got %s", config.Instagram.SessionID)
	}
	if config.Instagram.CSRFToken != "test-csrf-token" {
		t.Errorf("Expected CSRF token to be test-csrf-token, got %s", config.Instagram.CSRFToken)
	}
	if config.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.RateLimit.RequestsPerMinute)
	}
	if config.Output.BaseDirectory != "/tmp/test-downloads" {
		t.Errorf("Expected output directory to be /tmp/test-downloads, got %s", config.Output.BaseDirectory)
	}
	if config.Download.ConcurrentPosts != 5 {
		t.Errorf("Expected concurrent posts to be 5, got %d", config.Download.ConcurrentPosts)
	}
	if config.Download.ParallelStreams {
		t.Error("Expected parallel streams to be disabled")
	}
	if config.Download.Timeout != 90*time.Second {
		t.Errorf("Expected timeout 90s, got %v", config.Download.Timeout)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvBadValues(t *testing.T) {
	t.Setenv("IGFETCH_CONCURRENT_POSTS", "many")
	t.Setenv("IGFETCH_TIMEOUT", "soon")

	err := DefaultConfig().LoadFromEnv()
	if err == nil {
		t.Fatal("Expected an error for unparseable values")
	}
	for _, key := range []string{"IGFETCH_CONCURRENT_POSTS", "IGFETCH_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Error should mention %s: %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"zero timeout", func(c *Config) { c.Download.Timeout = 0 }, "timeout"},
		{"too many posts", func(c *Config) { c.Download.ConcurrentPosts = 11 }, "concurrent posts"},
		{"zero carousel concurrency", func(c *Config) { c.Download.CarouselConcurrency = 0 }, "carousel concurrency"},
		{"zero depth", func(c *Config) { c.Download.MaxCarouselDepth = 0 }, "depth"},
		{"skip everything", func(c *Config) { c.Download.SkipVideos, c.Download.SkipImages = true, true }, "cannot both"},
		{"no output", func(c *Config) { c.Output.BaseDirectory = "" }, "output directory"},
		{"pattern without key", func(c *Config) { c.Output.FileNamePattern = "{username}" }, "{shortcode} or {id}"},
		{"pattern with id", func(c *Config) { c.Output.FileNamePattern = "{date}_{id}" }, ""},
		{"no ffmpeg", func(c *Config) { c.Remux.FFmpegPath = "" }, "ffmpeg"},
		{"zero rate", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "requests per minute"},
		{"zero burst", func(c *Config) { c.RateLimit.BurstSize = 0 }, "burst"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"shrinking backoff", func(c *Config) { c.Retry.Multiplier = 0.5 }, "multiplier"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	c := DefaultConfig()
	c.Download.Timeout = 0
	c.Logging.Level = "loud"

	err := c.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "timeout") || !strings.Contains(err.Error(), "log level") {
		t.Errorf("Expected both problems in %v", err)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	config.MergeCommandLineFlags(map[string]interface{}{
		"output":          "/custom/output",
		"pattern":         "{shortcode}",
		"overwrite":       true,
		"write-info-json": true,
		"no-user-folders": true,
		"concurrency":     4,
		"no-videos":       true,
		"timeout":         5 * time.Second,
		"ffmpeg":          "/opt/ffmpeg",
		"session-id":      "flag-session",
		"log-level":       "warn",
	})

	if config.Output.BaseDirectory != "/custom/output" {
		t.Errorf("Expected output directory to be /custom/output, got %s", config.Output.BaseDirectory)
	}
	if config.Output.FileNamePattern != "{shortcode}" {
		t.Errorf("Expected pattern {shortcode}, got %s", config.Output.FileNamePattern)
	}
	if !config.Output.OverwriteExisting || !config.Output.WriteInfoJSON {
		t.Error("Expected overwrite and write-info-json to be set")
	}
	if config.Output.CreateUserFolders {
		t.Error("Expected user folders to be disabled")
	}
	if config.Download.ConcurrentPosts != 4 {
		t.Errorf("Expected concurrency 4, got %d", config.Download.ConcurrentPosts)
	}
	if !config.Download.SkipVideos {
		t.Error("Expected videos to be skipped")
	}
	if config.Download.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", config.Download.Timeout)
	}
	if config.Remux.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("Expected ffmpeg path /opt/ffmpeg, got %s", config.Remux.FFmpegPath)
	}
	if config.Instagram.SessionID != "flag-session" {
		t.Errorf("Expected session ID from flag, got %s", config.Instagram.SessionID)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}
}

func TestMergeCommandLineFlagsIgnoresZeroValues(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"output":      "",
		"concurrency": 0,
		"overwrite":   false,
	})

	if config.Output.BaseDirectory != "./downloads" {
		t.Errorf("Empty flag should not override output, got %s", config.Output.BaseDirectory)
	}
	if config.Download.ConcurrentPosts != 2 {
		t.Errorf("Zero flag should not override concurrency, got %d", config.Download.ConcurrentPosts)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	original := DefaultConfig()
	original.Instagram.SessionID = "saved-session"
	original.Download.Timeout = 45 * time.Second
	original.Output.WriteInfoJSON = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Instagram.SessionID != "saved-session" {
		t.Errorf("Expected session ID saved-session, got %s", loaded.Instagram.SessionID)
	}
	if loaded.Download.Timeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %v", loaded.Download.Timeout)
	}
	if !loaded.Output.WriteInfoJSON {
		t.Error("Expected write_info_json to round-trip")
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "download:\n  concurrent_posts: 7\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Download.ConcurrentPosts != 7 {
		t.Errorf("Expected 7 concurrent posts, got %d", config.Download.ConcurrentPosts)
	}
	if config.RateLimit.RequestsPerMinute != 60 {
		t.Error("Unset values should keep their defaults")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("Expected error for missing explicit file")
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("download: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := config.LoadFromFile(bad); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.yml")
	content := "output:\n  base_directory: /from/file\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IGFETCH_LOG_LEVEL", "warn")

	config, err := Load(path, map[string]interface{}{"output": "/from/flag"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Output.BaseDirectory != "/from/flag" {
		t.Errorf("Flag should win over file, got %s", config.Output.BaseDirectory)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Environment should win over file, got %s", config.Logging.Level)
	}
}
