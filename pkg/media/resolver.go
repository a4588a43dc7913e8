package media

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"igfetch/pkg/dash"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
	"igfetch/pkg/logger"
	"igfetch/pkg/storage"
)

const (
	DefaultMaxDepth            = 4
	DefaultCarouselConcurrency = 3
)

// VideoDownloader turns a DASH manifest into a playable file at outputPath
type VideoDownloader interface {
	Download(ctx context.Context, manifest, outputPath string) (*dash.Result, error)
}

// Options controls which leaves are fetched and how
type Options struct {
	Overwrite           bool
	SkipVideos          bool
	SkipImages          bool
	CarouselConcurrency int
	MaxDepth            int
}

// Resolver walks an Item tree and writes one file per leaf
type Resolver struct {
	fetcher fetch.RangeFetcher
	videos  VideoDownloader
	opts    Options
	logger  logger.Logger
}

// NewResolver creates a resolver. Zero concurrency or depth fall back to the defaults.
func NewResolver(f fetch.RangeFetcher, videos VideoDownloader, log logger.Logger, opts Options) *Resolver {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.CarouselConcurrency <= 0 {
		opts.CarouselConcurrency = DefaultCarouselConcurrency
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Resolver{
		fetcher: f,
		videos:  videos,
		opts:    opts,
		logger:  log,
	}
}

// Resolve writes every leaf of item into targetFolder, naming it baseName plus
// a positional _<n> suffix per carousel level.
//
// Leaf failures are logged and counted in the report; they never stop
// siblings. The error is non-nil only when targetFolder cannot be created or
// ctx is done.
func (r *Resolver) Resolve(ctx context.Context, item *Item, targetFolder, baseName string) (*Report, error) {
	folder, err := storage.NewManager(targetFolder)
	if err != nil {
		return nil, err
	}

	report := r.resolve(ctx, item, folder, baseName, 0)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Resolver) resolve(ctx context.Context, item *Item, folder *storage.Manager, baseName string, depth int) *Report {
	report := &Report{}
	log := r.logger.WithFields(map[string]interface{}{
		"item": baseName,
		"kind": item.Kind().String(),
	})

	if depth > r.opts.MaxDepth {
		err := fmt.Errorf("%s: carousel nesting deeper than %d", baseName, r.opts.MaxDepth)
		log.WithError(err).Error("Refusing to descend further")
		report.failed(err)
		return report
	}
	if err := ctx.Err(); err != nil {
		report.failed(fmt.Errorf("%s: %w", baseName, err))
		return report
	}

	switch item.Kind() {
	case KindCarousel:
		return r.resolveCarousel(ctx, item, folder, baseName, depth)
	case KindVideo:
		r.resolveVideo(ctx, item, folder, baseName, log, report)
	case KindImage:
		r.resolveImage(ctx, item, folder, baseName, log, report)
	default:
		log.Info("Item has no media to extract")
		report.Unavailable++
	}
	return report
}

func (r *Resolver) resolveCarousel(ctx context.Context, item *Item, folder *storage.Manager, baseName string, depth int) *Report {
	results := make([]*Report, len(item.Children))

	var g errgroup.Group
	g.SetLimit(r.opts.CarouselConcurrency)
	for i := range item.Children {
		i := i
		g.Go(func() error {
			child := baseName + "_" + strconv.Itoa(i+1)
			results[i] = r.resolve(ctx, &item.Children[i], folder, child, depth+1)
			return nil
		})
	}
	g.Wait()

	report := &Report{}
	for _, res := range results {
		report.Merge(res)
	}
	return report
}

func (r *Resolver) resolveVideo(ctx context.Context, item *Item, folder *storage.Manager, baseName string, log logger.Logger, report *Report) {
	name := baseName + ".mp4"
	if r.opts.SkipVideos {
		log.Debug("Skipping video")
		report.Skipped++
		return
	}
	if item.DashManifest == "" && item.VideoURL == "" {
		log.Info("No extraction method available for video")
		report.Unavailable++
		return
	}
	if !r.opts.Overwrite && folder.Exists(name) {
		log.WithField("file", name).Info("File exists, skipping")
		report.produced(folder.Path(name), true)
		return
	}

	if item.DashManifest != "" {
		path := folder.Path(name)
		res, err := r.videos.Download(ctx, item.DashManifest, path)
		switch {
		case err == nil:
			folder.MarkSaved(name)
			log.InfoWithFields("Video saved", map[string]interface{}{
				"file":       name,
				"video_only": res != nil && res.VideoOnly,
			})
			report.produced(path, false)
			return
		case errors.Is(err, errs.ErrExtractionUnavailable) && item.VideoURL != "":
			log.WithError(err).Info("Manifest unusable, falling back to direct video URL")
		case errors.Is(err, errs.ErrExtractionUnavailable):
			log.WithError(err).Info("No extraction method available for video")
			report.Unavailable++
			return
		default:
			err = fmt.Errorf("%s: %w", name, err)
			log.WithError(err).Error("Video download failed")
			report.failed(err)
			return
		}
	}

	data, err := r.fetcher.FetchRange(ctx, item.VideoURL, nil)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		log.WithError(err).Warn("Direct video download failed")
		report.failed(err)
		return
	}
	r.save(data, name, folder, log, report)
}

func (r *Resolver) resolveImage(ctx context.Context, item *Item, folder *storage.Manager, baseName string, log logger.Logger, report *Report) {
	name := baseName + ".jpg"
	if r.opts.SkipImages {
		log.Debug("Skipping image")
		report.Skipped++
		return
	}
	best, _ := item.BestResource()
	if best.URL == "" {
		log.Info("Image has no usable display resource")
		report.Unavailable++
		return
	}
	if !r.opts.Overwrite && folder.Exists(name) {
		log.WithField("file", name).Info("File exists, skipping")
		report.produced(folder.Path(name), true)
		return
	}

	log.DebugWithFields("Selected display resource", map[string]interface{}{
		"width":  best.Width,
		"height": best.Height,
	})
	data, err := r.fetcher.FetchRange(ctx, best.URL, nil)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		log.WithError(err).Error("Image download failed")
		report.failed(err)
		return
	}
	r.save(data, name, folder, log, report)
}

func (r *Resolver) save(data []byte, name string, folder *storage.Manager, log logger.Logger, report *Report) {
	path, err := folder.SaveBytes(data, name)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		log.WithError(err).Error("Failed to save file")
		report.failed(err)
		return
	}
	log.WithField("file", name).Info("Saved")
	report.produced(path, false)
}
