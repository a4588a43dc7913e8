package dash

import (
	"context"
	"fmt"
	"math"

	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
	"igfetch/pkg/logger"
)

// Assembler rebuilds one elementary stream from its representation's byte ranges
type Assembler struct {
	fetcher fetch.RangeFetcher
	logger  logger.Logger
}

// NewAssembler creates an assembler fetching through f
func NewAssembler(f fetch.RangeFetcher, log logger.Logger) *Assembler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Assembler{fetcher: f, logger: log}
}

// Plan returns the ranges Assemble fetches for rep, initialization first.
//
// With a declared content length the rest of the file after the
// initialization range is one range. Otherwise the first-segment,
// second-segment and prefetch ranges are used in that order; a range string
// equal to one already planned is dropped. The comparison is textual, so
// "0-9" and "00-9" are both fetched.
func (a *Assembler) Plan(rep *Representation) ([]ByteRange, error) {
	initRaw := rep.InitRange()
	if initRaw == "" {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q has no initialization range", rep.ID), nil)
	}
	init, err := ParseByteRange(initRaw)
	if err != nil {
		return nil, fmt.Errorf("representation %q initialization: %w", rep.ID, err)
	}

	plan := []ByteRange{init}

	if total := rep.TotalLength(); total > 0 {
		if total <= init.End+1 {
			return nil, errs.NewParseError(fmt.Sprintf("representation %q content length %d ends inside initialization range %s", rep.ID, total, init), nil)
		}
		return append(plan, ByteRange{Start: init.End + 1, End: total - 1}), nil
	}

	seen := make(map[string]bool, 3)
	for _, raw := range rep.PrefetchRanges() {
		if seen[raw] {
			continue
		}
		seen[raw] = true

		r, err := ParseByteRange(raw)
		if err != nil {
			return nil, fmt.Errorf("representation %q segment range: %w", rep.ID, err)
		}
		plan = append(plan, r)
	}

	if len(plan) == 1 {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q declares neither a content length nor segment ranges", rep.ID), nil)
	}
	return plan, nil
}

// Assemble fetches every planned range in order and concatenates them.
// It never returns a partial stream: any failed or short fetch aborts.
func (a *Assembler) Assemble(ctx context.Context, rep *Representation) ([]byte, error) {
	if rep.BaseURL == "" {
		return nil, errs.NewParseError(fmt.Sprintf("representation %q has no BaseURL", rep.ID), nil)
	}

	plan, err := a.Plan(rep)
	if err != nil {
		return nil, err
	}

	var size int64
	for _, r := range plan {
		n := r.Len()
		if n <= 0 || size > math.MaxInt64-n {
			return nil, errs.NewParseError(fmt.Sprintf("representation %q ranges overflow the stream size", rep.ID), nil)
		}
		size += n
	}
	buf := make([]byte, 0, min(size, 64<<20))

	log := a.logger.WithFields(map[string]interface{}{
		"representation": rep.ID,
		"ranges":         len(plan),
	})

	for i := range plan {
		r := plan[i]
		chunk, err := a.fetcher.FetchRange(ctx, rep.BaseURL, &r)
		if err != nil {
			return nil, fmt.Errorf("fetch range %s: %w", r, err)
		}
		if int64(len(chunk)) != r.Len() {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeNetwork,
				Message: fmt.Sprintf("range %s returned %d bytes, expected %d", r, len(chunk), r.Len()),
				URL:     rep.BaseURL,
			}
		}
		buf = append(buf, chunk...)
		log.DebugWithFields("fetched segment range", map[string]interface{}{
			"range": r.String(),
			"index": i,
		})
	}

	return buf, nil
}
