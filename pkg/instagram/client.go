package instagram

import (
	"context"
	"fmt"
	"strings"

	"igfetch/pkg/config"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
	"igfetch/pkg/logger"
	"igfetch/pkg/media"
)

// Client fetches post metadata from Instagram
type Client struct {
	fetcher fetch.RangeFetcher
	baseURL string
	logger  logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another host, such as a test server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a client issuing requests through f.
// f is expected to carry the headers returned by Headers.
func NewClient(f fetch.RangeFetcher, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := &Client{
		fetcher: f,
		baseURL: BaseURL,
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPost downloads and parses the post identified by shortcode
func (c *Client) FetchPost(ctx context.Context, shortcode string) (*media.Item, error) {
	if !IsValidShortcode(shortcode) {
		return nil, errs.NewValidationError(fmt.Sprintf("invalid shortcode %q", shortcode))
	}

	url := GetPostJSONURL(c.baseURL, shortcode)
	log := c.logger.WithField("shortcode", shortcode)
	log.DebugWithFields("Fetching post", map[string]interface{}{"url": url})

	body, err := c.fetcher.FetchRange(ctx, url, nil)
	if err != nil {
		// the post lookup answers for the whole post, so its status names the problem
		switch cat := errs.CategoryOf(err); cat {
		case errs.ErrorTypeNotFound:
			return nil, errs.Wrap(cat, fmt.Sprintf("post %s not found or private", shortcode), err)
		case errs.ErrorTypeAuth:
			return nil, errs.Wrap(cat, fmt.Sprintf("post %s needs a logged-in session", shortcode), err)
		case errs.ErrorTypeRateLimit:
			return nil, errs.Wrap(cat, fmt.Sprintf("rate limited fetching post %s", shortcode), err)
		}
		return nil, fmt.Errorf("fetch post %s: %w", shortcode, err)
	}

	item, err := ParsePost(body)
	if err != nil {
		log.WithError(err).WarnWithFields("Could not parse post response", map[string]interface{}{
			"body_preview": preview(body, 200),
		})
		return nil, fmt.Errorf("parse post %s: %w", shortcode, err)
	}
	if item.Shortcode == "" {
		item.Shortcode = shortcode
	}

	log.InfoWithFields("Post fetched", map[string]interface{}{
		"owner":  item.Owner.Username,
		"kind":   item.Kind().String(),
		"leaves": item.LeafCount(),
	})
	return item, nil
}

// Headers returns the request headers for an Instagram session
func Headers(cfg config.InstagramConfig) map[string]string {
	h := map[string]string{
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         BaseURL + "/",
	}
	if cfg.UserAgent != "" {
		h["User-Agent"] = cfg.UserAgent
	}
	if cfg.AppID != "" {
		h["X-IG-App-ID"] = cfg.AppID
	}
	if cfg.CSRFToken != "" {
		h["X-CSRFToken"] = cfg.CSRFToken
	}
	if cookie := CookieHeader(cfg); cookie != "" {
		h["Cookie"] = cookie
	}
	return h
}

// CookieHeader builds the Cookie value from the session fields that are set
func CookieHeader(cfg config.InstagramConfig) string {
	var cookies []string
	if cfg.SessionID != "" {
		cookies = append(cookies, "sessionid="+cfg.SessionID)
	}
	if cfg.CSRFToken != "" {
		cookies = append(cookies, "csrftoken="+cfg.CSRFToken)
	}
	if cfg.DSUserID != "" {
		cookies = append(cookies, "ds_user_id="+cfg.DSUserID)
	}
	return strings.Join(cookies, "; ")
}

func preview(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
