package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"igfetch/pkg/config"
	"igfetch/pkg/dash"
	"igfetch/pkg/fetch"
	"igfetch/pkg/history"
	"igfetch/pkg/instagram"
	"igfetch/pkg/logger"
	"igfetch/pkg/media"
	"igfetch/pkg/metadata"
	"igfetch/pkg/ratelimit"
	"igfetch/pkg/remux"
	"igfetch/pkg/retry"
	"igfetch/pkg/storage"
)

// Request names one post to download, either by URL or by a saved JSON response
type Request struct {
	URL      string
	JSONFile string
	// Force downloads posts already present in the history
	Force bool
}

// PostResult describes the outcome of one post
type PostResult struct {
	Shortcode string
	Owner     string
	Folder    string
	BaseName  string
	Item      *media.Item
	Report    *media.Report
	// InfoJSON is the sidecar path when one was written
	InfoJSON string
	// AlreadyDone is set when the history already had the post
	AlreadyDone bool
	Duration    time.Duration
}

// Scraper orchestrates the download of single posts
type Scraper struct {
	source   PostSource
	resolver ItemResolver
	history  History
	output   config.OutputConfig
	logger   logger.Logger

	// BeforeResolve runs after the post is parsed and before any media is fetched
	BeforeResolve func(res *PostResult)
}

// New creates a Scraper from its parts. hist may be nil.
func New(source PostSource, resolver ItemResolver, hist History, output config.OutputConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if output.FileNamePattern == "" {
		output.FileNamePattern = config.DefaultConfig().Output.FileNamePattern
	}
	return &Scraper{
		source:   source,
		resolver: resolver,
		history:  hist,
		output:   output,
		logger:   log,
	}
}

// NewFromConfig wires the HTTP client, rate limiter, retry policy, DASH
// pipeline and resolver described by cfg
func NewFromConfig(cfg *config.Config, hist *history.Manager, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client := fetch.NewClient(cfg.Download.Timeout, log,
		fetch.WithLimiter(limiter),
		fetch.WithHeaders(instagram.Headers(cfg.Instagram)),
	)
	fetcher := fetch.NewRetrying(client, retry.PolicyFromConfig(cfg.Retry, log))

	muxer := remux.New(cfg.Remux, log)
	if err := muxer.Available(); err != nil {
		log.WithError(err).Warn("ffmpeg unavailable, videos with separate audio will fail")
	}

	var pipelineOpts []dash.PipelineOption
	if !cfg.Download.ParallelStreams {
		pipelineOpts = append(pipelineOpts, dash.WithSequentialStreams())
	}
	pipeline := dash.NewPipeline(fetcher, muxer, log, pipelineOpts...)

	resolver := media.NewResolver(fetcher, pipeline, log, media.Options{
		Overwrite:           cfg.Output.OverwriteExisting,
		SkipVideos:          cfg.Download.SkipVideos,
		SkipImages:          cfg.Download.SkipImages,
		CarouselConcurrency: cfg.Download.CarouselConcurrency,
		MaxDepth:            cfg.Download.MaxCarouselDepth,
	})

	var h History
	if hist != nil {
		h = hist
	}

	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"output":   cfg.Output.BaseDirectory,
		"parallel": cfg.Download.ParallelStreams,
	})
	return New(instagram.NewClient(fetcher, log), resolver, h, cfg.Output, log), nil
}

// Download fetches the post named by req and writes its media.
// An error is returned when the post could not be obtained at all; per-file
// failures are reported in PostResult.Report.
func (s *Scraper) Download(ctx context.Context, req Request) (*PostResult, error) {
	start := time.Now()
	res := &PostResult{}

	var item *media.Item
	if req.JSONFile != "" {
		loaded, err := instagram.LoadPostFile(req.JSONFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", req.JSONFile, err)
		}
		item = loaded
		res.Shortcode = item.Shortcode
		if s.done(req, res.Shortcode) {
			res.AlreadyDone = true
			return res, nil
		}
	} else {
		shortcode, err := instagram.ParsePostURL(req.URL)
		if err != nil {
			return nil, err
		}
		res.Shortcode = shortcode
		if s.done(req, shortcode) {
			s.logger.WithField("shortcode", shortcode).Info("Post already downloaded, skipping")
			res.AlreadyDone = true
			return res, nil
		}

		fetched, err := s.source.FetchPost(ctx, shortcode)
		if err != nil {
			return nil, err
		}
		item = fetched
	}

	if res.Shortcode == "" {
		res.Shortcode = item.Shortcode
	}
	res.Item = item
	res.Owner = item.Owner.Username
	res.Folder = s.folderFor(res.Owner)
	res.BaseName = storage.FormatName(s.output.FileNamePattern, res.Owner, res.Shortcode, item.ID, item.TakenAt)

	log := s.logger.WithFields(map[string]interface{}{
		"shortcode": res.Shortcode,
		"owner":     res.Owner,
		"kind":      item.Kind().String(),
	})
	log.InfoWithFields("Resolving post", map[string]interface{}{
		"leaves": item.LeafCount(),
		"folder": res.Folder,
	})

	if s.BeforeResolve != nil {
		s.BeforeResolve(res)
	}

	report, err := s.resolver.Resolve(ctx, item, res.Folder, res.BaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", res.Shortcode, err)
	}
	res.Report = report

	if s.output.WriteInfoJSON {
		path, err := metadata.FromItem(item, res.BaseName, report).Save(res.Folder, res.BaseName)
		if err != nil {
			log.WithError(err).Warn("Failed to write info JSON")
		} else {
			res.InfoJSON = path
		}
	}

	if s.history != nil && report.Failed == 0 && report.Produced > 0 && res.Shortcode != "" {
		err := s.history.Record(history.Entry{
			Shortcode: res.Shortcode,
			Owner:     res.Owner,
			Files:     report.Files,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to record download history")
		}
	}

	res.Duration = time.Since(start)
	log.InfoWithFields("Post finished", map[string]interface{}{
		"produced":    report.Produced,
		"failed":      report.Failed,
		"unavailable": report.Unavailable,
		"skipped":     report.Skipped,
		"duration":    res.Duration,
	})
	return res, nil
}

func (s *Scraper) done(req Request, shortcode string) bool {
	return !req.Force && s.history != nil && shortcode != "" && s.history.Has(shortcode)
}

// folderFor returns the output directory for a post owned by username
func (s *Scraper) folderFor(username string) string {
	base := s.output.BaseDirectory
	if base == "" {
		base = "."
	}
	if s.output.CreateUserFolders && username != "" {
		return filepath.Join(base, storage.SanitizeFileName(username))
	}
	return base
}
