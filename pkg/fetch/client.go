package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "igfetch/pkg/errors"
	"igfetch/pkg/logger"
	"igfetch/pkg/ratelimit"
)

// RangeFetcher retrieves the bytes of a URL, optionally restricted to a byte range.
// A nil range requests the whole resource.
type RangeFetcher interface {
	FetchRange(ctx context.Context, url string, r *Range) ([]byte, error)
}

// Client is the single HTTP primitive used for manifests, segments, images and post JSON.
// It does not retry; wrap it in Retrying for that.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter throttles every request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithHeaders adds headers sent with every request
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// NewClient creates a fetch client whose requests time out after timeout
func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
			"Sec-Fetch-Mode":  "cors",
		},
		limiter: ratelimit.Unlimited{},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchRange issues a GET for url, with a Range header when r is non-nil.
// Any non-2xx status is a network error carrying the status and url.
func (c *Client) FetchRange(ctx context.Context, url string, r *Range) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, "invalid request url "+url, err)
	}
	if r != nil {
		req.Header.Set("Range", r.Header())
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, errs.NewNetworkError(url, resp.StatusCode, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetworkError(url, 0, fmt.Errorf("read body: %w", err))
	}
	return data, nil
}

// Fetch retrieves the whole resource at url
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.FetchRange(ctx, url, nil)
}

// GetJSON fetches url and decodes the body into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.WithError(err).ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"body_preview": preview,
		})
		return errs.NewParseError("invalid JSON response from "+url, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration,
		})
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.NewNetworkError(req.URL.String(), 0, err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, resp.ContentLength, duration)
	return resp, nil
}
