package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"blogwatch/internal/domain"
)

const maxBodyBytes = 10 << 20

// Client wraps HTTP fetching with browser-like headers, bounded bodies, and
// per-host pacing. Every strategy goes through it, so one knob controls the
// pipeline's politeness.
type Client struct {
	http      *http.Client
	userAgent string
	perHost   time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient builds a fetch client. A zero perHost disables pacing.
func NewClient(httpClient *http.Client, userAgent string, perHost time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		http:      httpClient,
		userAgent: userAgent,
		perHost:   perHost,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Get fetches a URL and returns the body. Network and HTTP-status failures
// come back as *domain.FetchError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.waitHost(ctx, rawURL); err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// Document fetches a URL and parses it as HTML.
func (c *Client) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &domain.ParseError{URL: rawURL, Err: err}
	}
	return doc, nil
}

// Feed fetches a URL and parses it as an RSS/Atom feed.
func (c *Client) Feed(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &domain.ParseError{URL: rawURL, Err: err}
	}
	return feed, nil
}

func (c *Client) waitHost(ctx context.Context, rawURL string) error {
	if c.perHost <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	c.mu.Lock()
	limiter, ok := c.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.perHost), 1)
		c.limiters[u.Host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}
