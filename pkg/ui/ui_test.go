package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/media"
	"igfetch/pkg/scraper"
)

func TestPrinterQuietOnlyShowsErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Info("Target", "C0abc")
	p.Success("done")
	p.Warning("careful")
	p.Error("failed", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "Target")
	assert.NotContains(t, out, "done")
	assert.Contains(t, out, "failed: boom")
	assert.True(t, p.Quiet())
}

func TestPrinterInfo(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Info("Output", "./downloads")
	p.Logo()

	assert.Contains(t, buf.String(), "Output:")
	assert.Contains(t, buf.String(), "./downloads")
	assert.Contains(t, buf.String(), "post & DASH fetcher")
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestTally(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", 1500)
	b := writeFile(t, dir, "b.mp4", 2500)

	outcomes := []Outcome{
		{Post: &scraper.PostResult{Report: &media.Report{Produced: 2, Attempted: 3, Failed: 1, Files: []string{a, b},
			Errors: []error{errs.NewRemuxError(1, "bad", nil)}}}},
		{Post: &scraper.PostResult{AlreadyDone: true}},
		{Post: &scraper.PostResult{Report: &media.Report{Unavailable: 1}}},
		{Label: "https://www.instagram.com/p/x/", Err: errs.New(errs.ErrorTypeAuth, "login required")},
	}

	tot := Tally(outcomes, 2*time.Second)
	assert.Equal(t, 4, tot.Posts)
	assert.Equal(t, 2, tot.Completed)
	assert.Equal(t, 1, tot.AlreadyDone)
	assert.Equal(t, 1, tot.PostErrors)
	assert.Equal(t, 2, tot.Produced)
	assert.Equal(t, 1, tot.Failed)
	assert.Equal(t, 1, tot.Unavailable)
	assert.Equal(t, int64(4000), tot.Bytes)
	assert.Len(t, tot.Errors, 2)
	assert.False(t, tot.Unsuccessful())
}

func TestUnsuccessful(t *testing.T) {
	assert.True(t, Totals{Failed: 1}.Unsuccessful())
	assert.True(t, Totals{PostErrors: 1}.Unsuccessful())
	assert.False(t, Totals{Unavailable: 3}.Unsuccessful())
	assert.False(t, Totals{Produced: 1, Failed: 1}.Unsuccessful())
}

func TestTips(t *testing.T) {
	tips := Tips([]error{
		errs.New(errs.ErrorTypeAuth, "a"),
		errors.New("plain"),
		errs.NewNetworkError("u", 500, nil),
		errs.New(errs.ErrorTypeAuth, "again"),
	})

	require.Len(t, tips, 2)
	assert.Contains(t, tips[0], "auth login")
	assert.Contains(t, tips[1], "connection")
	assert.Empty(t, Tips(nil))
}

func TestTipsReadSegmentStatus(t *testing.T) {
	tips := Tips([]error{
		fmt.Errorf("clip.mp4: %w", errs.NewNetworkError("https://cdn.example/clip.mp4", 403, nil)),
	})

	require.Len(t, tips, 1)
	assert.Contains(t, tips[0], "auth login")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Summary(Totals{Posts: 2, Produced: 3, Bytes: 2048, Failed: 1, Errors: []error{errs.New(errs.ErrorTypeRemux, "x")}})

	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "3 files, 2.0 kB")
	assert.Contains(t, out, "1 files, 0 posts")
	assert.Contains(t, out, "Troubleshooting")
	assert.Contains(t, out, "ffmpeg")
}

func TestSummaryQuietShowsFailures(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).Summary(Totals{Posts: 1, PostErrors: 1, Errors: []error{errs.New(errs.ErrorTypeNotFound, "gone")}})
	assert.Contains(t, buf.String(), "Summary")
	assert.Contains(t, buf.String(), "private or deleted")

	buf.Reset()
	NewPrinter(&buf, true).Summary(Totals{Posts: 1, Produced: 1})
	assert.Empty(t, buf.String())
}

func TestBatchProgress(t *testing.T) {
	var buf bytes.Buffer
	bp := NewBatchProgress(NewPrinter(&buf, false), 3)

	bp.PostInfo(&scraper.PostResult{
		Shortcode: "C0abc",
		Owner:     "alice",
		Item: &media.Item{
			Caption:  "hello\nworld",
			Children: []media.Item{{}, {}},
		},
	})
	bp.PostFinished("u1", &scraper.PostResult{Shortcode: "C0abc", Report: &media.Report{Produced: 2, Skipped: 1}}, nil)
	bp.PostFinished("u2", &scraper.PostResult{Shortcode: "C1def", AlreadyDone: true}, nil)
	bp.PostFinished("u3", nil, errors.New("not found"))

	out := buf.String()
	assert.Contains(t, out, "@alice")
	assert.Contains(t, out, "carousel")
	assert.Contains(t, out, "2 items")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "[1/3]")
	assert.Contains(t, out, "1 saved, 1 skipped")
	assert.Contains(t, out, "C1def already downloaded")
	assert.Contains(t, out, "[3/3] ✗ u3: not found")
}

type recordingSender struct {
	title, message string
}

func (r *recordingSender) Send(title, message string) error {
	r.title, r.message = title, message
	return nil
}

func TestNotifierBatchFinished(t *testing.T) {
	rec := &recordingSender{}
	NewNotifierWithSender(rec).BatchFinished(Totals{Posts: 2, Produced: 4, Failed: 1})
	assert.Equal(t, "igfetch finished", rec.title)
	assert.Equal(t, "4 files from 2 posts, 1 failures", rec.message)

	NewNotifierWithSender(rec).BatchFinished(Totals{Posts: 1, PostErrors: 1})
	assert.Equal(t, "igfetch failed", rec.title)

	var nilNotifier *Notifier
	nilNotifier.BatchFinished(Totals{})
}
