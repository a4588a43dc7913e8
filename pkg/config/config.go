package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment variable igfetch reads
const EnvPrefix = "IGFETCH_"

// Config holds all configuration options for igfetch
type Config struct {
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Remux     RemuxConfig     `yaml:"remux" json:"remux"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// InstagramConfig holds the session and request identity used against Instagram
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	DSUserID  string `yaml:"ds_user_id" json:"ds_user_id"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	AppID     string `yaml:"app_id" json:"app_id"`
}

// DownloadConfig controls fetch behaviour and concurrency
type DownloadConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	ConcurrentPosts     int           `yaml:"concurrent_posts" json:"concurrent_posts"`
	CarouselConcurrency int           `yaml:"carousel_concurrency" json:"carousel_concurrency"`
	ParallelStreams     bool          `yaml:"parallel_streams" json:"parallel_streams"`
	MaxCarouselDepth    int           `yaml:"max_carousel_depth" json:"max_carousel_depth"`
	SkipVideos          bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages          bool          `yaml:"skip_images" json:"skip_images"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	CreateUserFolders bool   `yaml:"create_user_folders" json:"create_user_folders"`
	FileNamePattern   string `yaml:"file_name_pattern" json:"file_name_pattern"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
	WriteInfoJSON     bool   `yaml:"write_info_json" json:"write_info_json"`
	HistoryFile       string `yaml:"history_file" json:"history_file"`
}

// RemuxConfig configures the external multiplexer
type RemuxConfig struct {
	FFmpegPath    string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	TempDirectory string `yaml:"temp_directory" json:"temp_directory"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig is the retry policy applied around every fetch
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AppID:     "936619743392459",
		},
		Download: DownloadConfig{
			Timeout:             60 * time.Second,
			ConcurrentPosts:     2,
			CarouselConcurrency: 3,
			ParallelStreams:     true,
			MaxCarouselDepth:    4,
		},
		Output: OutputConfig{
			BaseDirectory:     "./downloads",
			CreateUserFolders: true,
			FileNamePattern:   "{username}_{shortcode}",
		},
		Remux: RemuxConfig{
			FFmpegPath: "ffmpeg",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from IGFETCH_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	// Instagram session
	setString("SESSION_ID", &c.Instagram.SessionID)
	setString("CSRF_TOKEN", &c.Instagram.CSRFToken)
	setString("DS_USER_ID", &c.Instagram.DSUserID)
	setString("USER_AGENT", &c.Instagram.UserAgent)

	// Download
	setDuration("TIMEOUT", &c.Download.Timeout)
	setInt("CONCURRENT_POSTS", &c.Download.ConcurrentPosts)
	setInt("CAROUSEL_CONCURRENCY", &c.Download.CarouselConcurrency)
	setBool("PARALLEL_STREAMS", &c.Download.ParallelStreams)

	// Output
	setString("OUTPUT_DIR", &c.Output.BaseDirectory)
	setString("FILE_NAME_PATTERN", &c.Output.FileNamePattern)
	setBool("WRITE_INFO_JSON", &c.Output.WriteInfoJSON)

	setString("FFMPEG_PATH", &c.Remux.FFmpegPath)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	setInt("RETRY_ATTEMPTS", &c.Retry.MaxAttempts)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultConfigPath is where `config init` writes when no path is given
func DefaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "igfetch", "config.yml")
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igfetch.yaml",
		".igfetch.yml",
		filepath.Join(home, ".config", "igfetch", "config.yaml"),
		DefaultConfigPath(),
		filepath.Join(home, ".igfetch.yaml"),
		filepath.Join(home, ".igfetch.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.ConcurrentPosts <= 0 || c.Download.ConcurrentPosts > 10 {
		errs = append(errs, errors.New("concurrent posts must be between 1 and 10"))
	}
	if c.Download.CarouselConcurrency <= 0 || c.Download.CarouselConcurrency > 10 {
		errs = append(errs, errors.New("carousel concurrency must be between 1 and 10"))
	}
	if c.Download.MaxCarouselDepth <= 0 {
		errs = append(errs, errors.New("max carousel depth must be positive"))
	}
	if c.Download.SkipVideos && c.Download.SkipImages {
		errs = append(errs, errors.New("skip_videos and skip_images cannot both be set"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.FileNamePattern == "" {
		errs = append(errs, errors.New("file name pattern is required"))
	} else if !strings.Contains(c.Output.FileNamePattern, "{shortcode}") && !strings.Contains(c.Output.FileNamePattern, "{id}") {
		errs = append(errs, errors.New("file name pattern must contain {shortcode} or {id}"))
	}

	if c.Remux.FFmpegPath == "" {
		errs = append(errs, errors.New("ffmpeg path is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies explicitly set CLI flags on top of the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["pattern"].(string); ok && v != "" {
		c.Output.FileNamePattern = v
	}
	if v, ok := flags["overwrite"].(bool); ok && v {
		c.Output.OverwriteExisting = true
	}
	if v, ok := flags["write-info-json"].(bool); ok && v {
		c.Output.WriteInfoJSON = true
	}
	if v, ok := flags["no-user-folders"].(bool); ok && v {
		c.Output.CreateUserFolders = false
	}
	if v, ok := flags["concurrency"].(int); ok && v > 0 {
		c.Download.ConcurrentPosts = v
	}
	if v, ok := flags["no-videos"].(bool); ok && v {
		c.Download.SkipVideos = true
	}
	if v, ok := flags["no-images"].(bool); ok && v {
		c.Download.SkipImages = true
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Download.Timeout = v
	}
	if v, ok := flags["ffmpeg"].(string); ok && v != "" {
		c.Remux.FFmpegPath = v
	}
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
