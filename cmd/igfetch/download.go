package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"igfetch/internal/downloader"
	"igfetch/pkg/config"
	"igfetch/pkg/history"
	"igfetch/pkg/instagram"
	"igfetch/pkg/logger"
	"igfetch/pkg/scraper"
	"igfetch/pkg/session"
	"igfetch/pkg/ui"
)

var (
	fromJSON      []string
	outputDir     string
	pattern       string
	overwrite     bool
	force         bool
	writeInfoJSON bool
	noVideos      bool
	noImages      bool
	noUserFolders bool
	concurrency   int
	ffmpegPath    string
	timeout       time.Duration
	notify        bool
)

var downloadCmd = &cobra.Command{
	Use:     "download [post-url]...",
	Aliases: []string{"dl", "get"},
	Short:   "Download one or more Instagram posts",
	Long: `Download the photos and videos of Instagram posts.

Accepted URLs look like https://www.instagram.com/p/<shortcode>/ and also
/reel/, /reels/ and /tv/ links, with or without a leading username.

Posts that need a login use the session stored with 'igfetch auth login'
or the IGFETCH_SESSION_ID environment variable.

Posts already in the download history are skipped unless --force is given.`,
	Example: `  # Download a single post
  igfetch download https://www.instagram.com/p/C0abc123xyz/

  # Several posts, three at a time, into ./media
  igfetch download -o ./media --concurrency 3 URL1 URL2 URL3

  # Rebuild media from a response saved in the browser
  igfetch download --from-json post.json

  # Keep an info sidecar next to the files
  igfetch download --write-info-json URL`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	f := downloadCmd.Flags()
	f.StringSliceVar(&fromJSON, "from-json", nil, "read the post from a saved JSON response instead of fetching it (repeatable)")
	f.StringVarP(&outputDir, "output", "o", "", "output directory")
	f.StringVar(&pattern, "pattern", "", "file name pattern ({username}, {shortcode}, {id}, {date})")
	f.BoolVar(&overwrite, "overwrite", false, "overwrite existing files")
	f.BoolVar(&force, "force", false, "download posts already in the history")
	f.BoolVar(&writeInfoJSON, "write-info-json", false, "write <name>.json with post metadata")
	f.BoolVar(&noVideos, "no-videos", false, "skip videos")
	f.BoolVar(&noImages, "no-images", false, "skip images")
	f.BoolVar(&noUserFolders, "no-user-folders", false, "do not create a folder per owner")
	f.IntVar(&concurrency, "concurrency", 0, "posts downloaded at once")
	f.StringVar(&ffmpegPath, "ffmpeg", "", "path to the ffmpeg binary")
	f.DurationVar(&timeout, "timeout", 0, "HTTP request timeout")
	f.BoolVar(&notify, "notify", false, "send a desktop notification when the batch ends")
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(fromJSON) == 0 {
		return errors.New("give at least one post URL or --from-json file")
	}

	// reject bad URLs before any network I/O
	var invalid []error
	for _, raw := range args {
		if _, err := instagram.ParsePostURL(raw); err != nil {
			invalid = append(invalid, err)
		}
	}
	if len(invalid) > 0 {
		for _, err := range invalid {
			printer.Error("Invalid URL", err)
		}
		return errBatchFailed
	}

	cfg, log, err := loadConfig(downloadFlags(cmd))
	if err != nil {
		return err
	}
	applyStoredSession(cfg, log)

	hist, err := openHistory(cfg, log)
	if err != nil {
		return err
	}

	s, err := scraper.NewFromConfig(cfg, hist, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	reqs := make([]scraper.Request, 0, len(args)+len(fromJSON))
	for _, path := range fromJSON {
		reqs = append(reqs, scraper.Request{JSONFile: path, Force: force})
	}
	for _, raw := range args {
		reqs = append(reqs, scraper.Request{URL: raw, Force: force})
	}

	progress := ui.NewBatchProgress(printer, len(reqs))
	s.BeforeResolve = progress.PostInfo

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Info("Output", cfg.Output.BaseDirectory)
	start := time.Now()
	results := downloader.Run(ctx, &reportingProcessor{scraper: s, progress: progress}, reqs, cfg.Download.ConcurrentPosts, log)

	outcomes := make([]ui.Outcome, len(results))
	for i, r := range results {
		outcomes[i] = ui.Outcome{Label: label(r.Job.Request), Post: r.Post, Err: r.Error}
	}
	totals := ui.Tally(outcomes, time.Since(start))
	printer.Summary(totals)
	if notify {
		ui.NewNotifier().BatchFinished(totals)
	}

	if totals.Unsuccessful() {
		return errBatchFailed
	}
	return nil
}

// reportingProcessor prints each post as soon as it finishes
type reportingProcessor struct {
	scraper  *scraper.Scraper
	progress *ui.BatchProgress
}

func (p *reportingProcessor) Download(ctx context.Context, req scraper.Request) (*scraper.PostResult, error) {
	res, err := p.scraper.Download(ctx, req)
	p.progress.PostFinished(label(req), res, err)
	return res, err
}

func label(req scraper.Request) string {
	if req.JSONFile != "" {
		return req.JSONFile
	}
	return req.URL
}

func downloadFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed

	if set("output") {
		flags["output"] = outputDir
	}
	if set("pattern") {
		flags["pattern"] = pattern
	}
	if overwrite {
		flags["overwrite"] = true
	}
	if writeInfoJSON {
		flags["write-info-json"] = true
	}
	if noUserFolders {
		flags["no-user-folders"] = true
	}
	if noVideos {
		flags["no-videos"] = true
	}
	if noImages {
		flags["no-images"] = true
	}
	if set("concurrency") {
		flags["concurrency"] = concurrency
	}
	if set("ffmpeg") {
		flags["ffmpeg"] = ffmpegPath
	}
	if set("timeout") {
		flags["timeout"] = timeout
	}
	return flags
}

// applyStoredSession fills in cookies from the session store when none were configured
func applyStoredSession(cfg *config.Config, log logger.Logger) {
	if cfg.Instagram.SessionID != "" {
		return
	}
	mgr, err := session.NewManager("")
	if err != nil {
		log.WithError(err).Warn("Session store unavailable")
		return
	}
	s, err := mgr.RetrieveDefault()
	if err != nil {
		log.Debug("No stored session, only public posts will work")
		return
	}
	session.Apply(s, &cfg.Instagram)
	log.WithField("account", s.Username).Debug("Using stored session")
}

func openHistory(cfg *config.Config, log logger.Logger) (*history.Manager, error) {
	path := cfg.Output.HistoryFile
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return history.NewManager(path, log)
}
