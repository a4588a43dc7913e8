// Package scraper downloads one Instagram post end to end.
//
// A Scraper validates the post URL (or loads a captured JSON response),
// consults the download history, fetches and parses the post, names the
// output files, hands the item tree to the media resolver, writes the
// optional info sidecar and finally records the post in the history.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	s, err := scraper.NewFromConfig(cfg, hist, log)
//	if err != nil {
//	    return err
//	}
//	res, err := s.Download(ctx, scraper.Request{URL: "https://www.instagram.com/p/C0abc123/"})
//
// Files are written to <base>/<username>/<pattern>.<ext> where the pattern
// defaults to {username}_{shortcode}. Carousel children get _1, _2, ...
// suffixes in display order.
package scraper
