package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igfetch/pkg/config"
	"igfetch/pkg/logger"
	"igfetch/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool

	printer *ui.Printer
)

// errBatchFailed exits non-zero after the summary already explained why
var errBatchFailed = errors.New("nothing was downloaded")

var rootCmd = &cobra.Command{
	Use:   "igfetch",
	Short: "Download Instagram posts, reels and carousels",
	Long: `igfetch downloads the media of Instagram posts.

Videos are rebuilt from their DASH manifests: the best video and audio
representations are fetched by byte range and merged losslessly with ffmpeg.
Carousels are saved as numbered files in display order.

Features:
  - Session cookies kept in the system keychain or an encrypted file
  - Concurrent downloads with rate limiting and retries
  - Download history so repeated runs skip finished posts
  - Optional JSON sidecar with caption, owner and file list`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printer = ui.Stdout(quiet)
		if verbose {
			printer.Logo()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ~/.config/igfetch/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors and the final summary on failure")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show the banner and debug logs")

	rootCmd.SetVersionTemplate(`igfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with flags on top and sets up logging
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case logLevel != "":
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	case quiet:
		flags["log-level"] = "error"
	default:
		// the printer reports progress; logs only surface problems
		flags["log-level"] = "warn"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}
