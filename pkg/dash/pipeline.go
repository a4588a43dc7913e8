package dash

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
	"igfetch/pkg/logger"
	"igfetch/pkg/storage"
)

// Muxer combines a video and an audio stream into one file at outputPath
type Muxer interface {
	Remux(ctx context.Context, video, audio []byte, outputPath string) error
}

// Result describes what Download produced
type Result struct {
	Video      *Representation
	Audio      *Representation
	VideoBytes int
	AudioBytes int
	// VideoOnly is set when the manifest has no audio track and the video stream was saved as-is
	VideoOnly bool
}

// Pipeline turns a manifest into one playable MP4
type Pipeline struct {
	assembler *Assembler
	muxer     Muxer
	parallel  bool
	logger    logger.Logger
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithSequentialStreams assembles audio only after video finishes
func WithSequentialStreams() PipelineOption {
	return func(p *Pipeline) { p.parallel = false }
}

// NewPipeline creates a pipeline fetching through f and remuxing through m
func NewPipeline(f fetch.RangeFetcher, m Muxer, log logger.Logger, opts ...PipelineOption) *Pipeline {
	if log == nil {
		log = logger.NewNopLogger()
	}
	p := &Pipeline{
		assembler: NewAssembler(f, log),
		muxer:     m,
		parallel:  true,
		logger:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Download parses manifest, picks the best video and audio representations,
// assembles both streams and writes the merged file to outputPath.
//
// A manifest without a recognisable video track returns an error wrapping
// errors.ErrExtractionUnavailable. A manifest with video but no audio saves
// the video stream alone.
func (p *Pipeline) Download(ctx context.Context, manifest, outputPath string) (*Result, error) {
	mpd, err := ParseMPD(manifest)
	if err != nil {
		return nil, err
	}
	sets := mpd.Periods[0].AdaptationSets

	videoSet, ok := SelectVideoSet(sets)
	if !ok {
		return nil, fmt.Errorf("%w: manifest has no video adaptation set", errs.ErrExtractionUnavailable)
	}
	videoRep, ok := PickBestRepresentation(videoSet)
	if !ok {
		return nil, fmt.Errorf("%w: video adaptation set has no representations", errs.ErrExtractionUnavailable)
	}
	video, err := withResolvedURL(mpd.BaseURL, videoRep)
	if err != nil {
		return nil, err
	}

	var audio *Representation
	if audioSet, ok := SelectAudioSet(sets); ok && audioSet != videoSet {
		if rep, ok := PickBestRepresentation(audioSet); ok {
			if audio, err = withResolvedURL(mpd.BaseURL, rep); err != nil {
				return nil, err
			}
		}
	}

	log := p.logger.WithField("output", outputPath)
	fields := map[string]interface{}{
		"video_rep":       video.ID,
		"video_bandwidth": video.BandwidthBPS(),
	}
	if audio != nil {
		fields["audio_rep"] = audio.ID
		fields["audio_bandwidth"] = audio.BandwidthBPS()
	}
	log.DebugWithFields("selected representations", fields)

	videoData, audioData, err := p.assembleStreams(ctx, video, audio)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Video:      video,
		Audio:      audio,
		VideoBytes: len(videoData),
		AudioBytes: len(audioData),
	}

	if audio == nil {
		log.Warn("manifest has no audio track, saving video stream only")
		if _, err := storage.WriteFileAtomic(outputPath, bytes.NewReader(videoData)); err != nil {
			return nil, err
		}
		result.VideoOnly = true
		return result, nil
	}

	if err := p.muxer.Remux(ctx, videoData, audioData, outputPath); err != nil {
		return nil, fmt.Errorf("remux: %w", err)
	}
	return result, nil
}

// assembleStreams is the join point for the two streams: the remux needs both
func (p *Pipeline) assembleStreams(ctx context.Context, video, audio *Representation) ([]byte, []byte, error) {
	var videoData, audioData []byte

	assembleVideo := func(ctx context.Context) error {
		data, err := p.assembler.Assemble(ctx, video)
		if err != nil {
			return fmt.Errorf("assemble video: %w", err)
		}
		videoData = data
		return nil
	}
	assembleAudio := func(ctx context.Context) error {
		if audio == nil {
			return nil
		}
		data, err := p.assembler.Assemble(ctx, audio)
		if err != nil {
			return fmt.Errorf("assemble audio: %w", err)
		}
		audioData = data
		return nil
	}

	if !p.parallel {
		if err := assembleVideo(ctx); err != nil {
			return nil, nil, err
		}
		if err := assembleAudio(ctx); err != nil {
			return nil, nil, err
		}
		return videoData, audioData, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return assembleVideo(gctx) })
	g.Go(func() error { return assembleAudio(gctx) })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return videoData, audioData, nil
}

// withResolvedURL returns a copy of rep whose BaseURL is absolute
func withResolvedURL(base string, rep *Representation) (*Representation, error) {
	out := *rep
	if out.BaseURL == "" {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q has no BaseURL", rep.ID), nil)
	}

	ref, err := url.Parse(out.BaseURL)
	if err != nil {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q has an invalid BaseURL", rep.ID), err)
	}
	if ref.IsAbs() {
		return &out, nil
	}
	if base == "" {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q has a relative BaseURL and the manifest has none", rep.ID), nil)
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return nil, errs.NewParseError("manifest BaseURL is not absolute", err)
	}
	out.BaseURL = b.ResolveReference(ref).String()
	return &out, nil
}
