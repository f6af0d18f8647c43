// Package github is a small client for the GitHub REST API covering the
// endpoints reposcout needs: repository search, repository details,
// READMEs, git trees, file contents, and user events.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	defaultPause   = 60 * time.Second
	defaultPerPage = 100
	apiVersion     = "2022-11-28"
	userAgent      = "reposcout"

	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.raw+json"
)

var (
	// ErrNotFound is returned (wrapped) for 404 responses.
	ErrNotFound = errors.New("github: not found")

	// ErrRateLimited is returned (wrapped) when the rate limit is still
	// exhausted after pausing once.
	ErrRateLimited = errors.New("github: rate limit exceeded")
)

// APIError describes a non-2xx response.
type APIError struct {
	StatusCode  int
	URL         string
	Message     string
	RateLimited bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
}

// Unwrap maps the response onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.RateLimited:
		return ErrRateLimited
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// RateLimit is the most recent rate limit state reported by the API.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Known reports whether any rate limit headers have been seen.
func (r RateLimit) Known() bool {
	return r.Limit > 0 || !r.Reset.IsZero()
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	RateLimitPause time.Duration
	PerPage        int
	// CacheSize bounds the response cache; 0 disables caching.
	CacheSize  int
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client performs authenticated GET requests against the REST API.
type Client struct {
	baseURL string
	token   string
	pause   time.Duration
	perPage int
	http    *http.Client
	cache   *lru.Cache[string, []byte]
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	rate RateLimit
}

// New returns a configured client.
func New(opts Options) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		pause:   opts.RateLimitPause,
		perPage: opts.PerPage,
		http:    opts.HTTPClient,
		logger:  opts.Logger,
		sleep:   sleepContext,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.pause <= 0 {
		c.pause = defaultPause
	}
	if c.perPage <= 0 || c.perPage > 100 {
		c.perPage = defaultPerPage
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// RateLimit returns the last rate limit state seen.
func (c *Client) RateLimit() RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// getJSON fetches path and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.get(ctx, path, query, acceptJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// get performs a GET with caching. A rate-limited response pauses once and
// retries; a second rate-limited response is returned as ErrRateLimited.
func (c *Client) get(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	key := accept + " " + u

	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	for attempt := 0; ; attempt++ {
		status, header, body, err := c.do(ctx, u, accept)
		if err != nil {
			return nil, err
		}
		c.recordRateLimit(header)

		if isRateLimited(status, header) {
			if attempt == 0 {
				wait := c.backoff(header, time.Now())
				c.logger.Warn("rate limit reached; pausing", "wait", wait, "url", u)
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &APIError{StatusCode: status, URL: u, Message: errorMessage(body), RateLimited: true}
		}

		if status != http.StatusOK {
			return nil, &APIError{StatusCode: status, URL: u, Message: errorMessage(body)}
		}

		if c.cache != nil {
			c.cache.Add(key, body)
		}
		return body, nil
	}
}

func (c *Client) do(ctx context.Context, u, accept string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *Client) recordRateLimit(h http.Header) {
	limit, errL := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	remaining, errR := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	reset, errT := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if errL != nil && errR != nil && errT != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if errL == nil {
		c.rate.Limit = limit
	}
	if errR == nil {
		c.rate.Remaining = remaining
	}
	if errT == nil {
		c.rate.Reset = time.Unix(reset, 0).UTC()
	}
}

// backoff returns the configured pause, shortened when the API says the
// window resets sooner.
func (c *Client) backoff(h http.Header, now time.Time) time.Duration {
	wait := c.pause
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs >= 0 {
		wait = min(wait, time.Duration(secs)*time.Second)
	}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if until := time.Unix(reset, 0).Sub(now); until > 0 {
			wait = min(wait, until)
		}
	}
	return wait
}

func isRateLimited(status int, h http.Header) bool {
	if status != http.StatusForbidden && status != http.StatusTooManyRequests {
		return false
	}
	if h.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return status == http.StatusTooManyRequests || h.Get("Retry-After") != ""
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
