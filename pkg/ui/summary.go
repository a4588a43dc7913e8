package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/scraper"
)

// Outcome is one post of a batch as the summary sees it
type Outcome struct {
	Label string
	Post  *scraper.PostResult
	Err   error
}

// Totals aggregates a batch
type Totals struct {
	Posts       int
	Completed   int
	AlreadyDone int
	PostErrors  int

	Produced    int
	Failed      int
	Unavailable int
	Skipped     int

	Bytes   int64
	Errors  []error
	Elapsed time.Duration
}

// Tally sums outcomes; Bytes counts the files that exist on disk
func Tally(outcomes []Outcome, elapsed time.Duration) Totals {
	t := Totals{Posts: len(outcomes), Elapsed: elapsed}
	for _, o := range outcomes {
		if o.Err != nil {
			t.PostErrors++
			t.Errors = append(t.Errors, o.Err)
			continue
		}
		if o.Post == nil {
			continue
		}
		if o.Post.AlreadyDone {
			t.AlreadyDone++
			continue
		}
		r := o.Post.Report
		if r == nil {
			continue
		}
		t.Completed++
		t.Produced += r.Produced
		t.Failed += r.Failed
		t.Unavailable += r.Unavailable
		t.Skipped += r.Skipped
		t.Errors = append(t.Errors, r.Errors...)
		for _, f := range r.Files {
			if info, err := os.Stat(f); err == nil {
				t.Bytes += info.Size()
			}
		}
	}
	return t
}

// Unsuccessful reports a batch that produced nothing while something failed
func (t Totals) Unsuccessful() bool {
	return t.Produced == 0 && (t.Failed > 0 || t.PostErrors > 0)
}

// Summary prints the batch totals followed by troubleshooting tips when anything failed
func (p *Printer) Summary(t Totals) {
	s := p.style
	var b strings.Builder

	b.WriteString(s.title.Render("Summary") + "\n")
	fmt.Fprintf(&b, "%s %d", s.label.Render("Posts:"), t.Posts)
	if t.AlreadyDone > 0 {
		fmt.Fprintf(&b, " (%d already downloaded)", t.AlreadyDone)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Produced:"), s.success.Render(fmt.Sprintf("%d files, %s", t.Produced, humanize.Bytes(uint64(t.Bytes)))))
	if t.Skipped > 0 {
		fmt.Fprintf(&b, "%s %d\n", s.label.Render("Skipped:"), t.Skipped)
	}
	if t.Unavailable > 0 {
		fmt.Fprintf(&b, "%s %d\n", s.label.Render("Unavailable:"), t.Unavailable)
	}
	if t.Failed+t.PostErrors > 0 {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("Failed:"), s.err.Render(fmt.Sprintf("%d files, %d posts", t.Failed, t.PostErrors)))
	}
	fmt.Fprintf(&b, "%s %s", s.label.Render("Elapsed:"), t.Elapsed.Round(time.Millisecond))

	p.println(t.Unsuccessful(), s.panel.Render(b.String()))

	if tips := Tips(t.Errors); len(tips) > 0 {
		p.println(true, s.warning.Render("Troubleshooting:"))
		for _, tip := range tips {
			p.println(true, "  - "+tip)
		}
	}
}

var tipsByType = map[errs.ErrorType]string{
	errs.ErrorTypeAuth:       "Instagram wants a login: run 'igfetch auth login' or set IGFETCH_SESSION_ID",
	errs.ErrorTypeRateLimit:  "Rate limited: wait a few minutes or lower rate_limit.requests_per_minute",
	errs.ErrorTypeNotFound:   "The post may be private or deleted; private posts need a session that follows the owner",
	errs.ErrorTypeNetwork:    "Network errors: check your connection and rerun with --log-level debug",
	errs.ErrorTypeParse:      "Unexpected response format: save the post JSON and retry with --from-json",
	errs.ErrorTypeRemux:      "ffmpeg failed: check that ffmpeg is installed or set remux.ffmpeg_path",
	errs.ErrorTypeValidation: "Use post URLs like https://www.instagram.com/p/<shortcode>/",
}

// Tips returns one troubleshooting hint per error category, in order of first appearance
func Tips(errors []error) []string {
	seen := make(map[errs.ErrorType]bool)
	var tips []string
	for _, err := range errors {
		t := errs.CategoryOf(err)
		if seen[t] {
			continue
		}
		seen[t] = true
		if tip, ok := tipsByType[t]; ok {
			tips = append(tips, tip)
		}
	}
	return tips
}
