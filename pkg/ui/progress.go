package ui

import (
	"fmt"
	"strings"
	"sync"

	"igfetch/pkg/metadata"
	"igfetch/pkg/scraper"
)

// BatchProgress prints one line per post as a batch runs
type BatchProgress struct {
	mu      sync.Mutex
	printer *Printer
	total   int
	done    int
}

// NewBatchProgress creates a progress printer for total posts
func NewBatchProgress(p *Printer, total int) *BatchProgress {
	return &BatchProgress{printer: p, total: total}
}

// PostInfo describes a parsed post before its media is fetched
func (b *BatchProgress) PostInfo(res *scraper.PostResult) {
	if res == nil || res.Item == nil {
		return
	}
	item := res.Item

	parts := []string{b.printer.style.label.Render(res.Shortcode)}
	if res.Owner != "" {
		parts = append(parts, "@"+res.Owner)
	}
	parts = append(parts, item.Kind().String())
	if n := item.LeafCount(); n != 1 {
		parts = append(parts, fmt.Sprintf("%d items", n))
	}
	if caption := metadata.FormatCaption(item.Caption, 60); caption != "" {
		parts = append(parts, b.printer.style.dim.Render(caption))
	}
	b.printer.Plain(strings.Join(parts, " · "))
}

// PostFinished prints the outcome of one post
func (b *BatchProgress) PostFinished(label string, res *scraper.PostResult, err error) {
	b.mu.Lock()
	b.done++
	counter := fmt.Sprintf("[%d/%d]", b.done, b.total)
	b.mu.Unlock()

	s := b.printer.style
	prefix := s.dim.Render(counter)

	switch {
	case err != nil:
		b.printer.Error(fmt.Sprintf("%s ✗ %s", counter, label), err)
	case res.AlreadyDone:
		b.printer.Plain(fmt.Sprintf("%s %s %s already downloaded", prefix, s.dim.Render("•"), res.Shortcode))
	case res.Report == nil:
		b.printer.Plain(fmt.Sprintf("%s %s %s", prefix, s.dim.Render("•"), res.Shortcode))
	case res.Report.Failed > 0:
		b.printer.Plain(fmt.Sprintf("%s %s %s %s", prefix, s.warning.Render("!"), res.Shortcode, describe(res)))
	case res.Report.NothingToExtract():
		b.printer.Plain(fmt.Sprintf("%s %s %s nothing to extract", prefix, s.dim.Render("-"), res.Shortcode))
	default:
		b.printer.Plain(fmt.Sprintf("%s %s %s %s", prefix, s.success.Render("✓"), res.Shortcode, describe(res)))
	}
}

func describe(res *scraper.PostResult) string {
	r := res.Report
	parts := []string{fmt.Sprintf("%d saved", r.Produced-r.Skipped)}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Unavailable > 0 {
		parts = append(parts, fmt.Sprintf("%d unavailable", r.Unavailable))
	}
	return strings.Join(parts, ", ")
}
