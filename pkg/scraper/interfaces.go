package scraper

import (
	"context"

	"igfetch/pkg/history"
	"igfetch/pkg/media"
)

// PostSource fetches and parses a post by shortcode
type PostSource interface {
	FetchPost(ctx context.Context, shortcode string) (*media.Item, error)
}

// ItemResolver writes the files of an item tree
type ItemResolver interface {
	Resolve(ctx context.Context, item *media.Item, targetFolder, baseName string) (*media.Report, error)
}

// History remembers completed posts
type History interface {
	Has(shortcode string) bool
	Record(e history.Entry) error
}
