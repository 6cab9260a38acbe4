package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/cache"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/util"
)

// ErrRobotsDisallowed reports a URL the site's robots.txt asks us not to
// fetch.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Fetcher retrieves race pages over HTTPS. It follows redirects (the
// racing site redirects finished racecards to their results page) and
// reports the final URL so callers can detect that.
type Fetcher struct {
	httpClient    *http.Client
	userAgent     string
	consentCookie string
	maxBytes      int64
	pages         *cache.PageCache
	robots        *util.RobotsChecker
}

// FetchResult is one fetched page: the body and where navigation
// actually landed.
type FetchResult struct {
	Body     []byte
	FinalURL string
	Cached   bool
}

// NewFetcher builds a fetcher from configuration. pages and robots may
// be nil to disable caching or the robots.txt check.
func NewFetcher(cfg model.HTTPConfig, site model.SiteConfig, pages *cache.PageCache) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.NavTimeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		consentCookie: site.ConsentCookie,
		maxBytes:      cfg.MaxBodyBytes,
		pages:         pages,
	}
	if site.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, 10*time.Second)
	}
	return f
}

// Fetch retrieves the page at rawURL. Cached pages short-circuit the
// network entirely; cached results report the request URL as final,
// which is safe because redirected pages are never cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.pages != nil {
		if body, ok := f.pages.Get(rawURL); ok {
			return &FetchResult{Body: body, FinalURL: rawURL, Cached: true}, nil
		}
	}
	return f.FetchFresh(ctx, rawURL)
}

// FetchFresh retrieves the page bypassing the cache, so a retry after an
// empty first read actually hits the site again.
func (f *Fetcher) FetchFresh(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	// Best-effort cookie banner dismissal: present the consent cookie up
	// front so the markup arrives without the overlay variant.
	if f.consentCookie != "" {
		req.Header.Set("Cookie", f.consentCookie)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	if f.pages != nil && finalURL == rawURL {
		f.pages.Set(rawURL, body)
	}

	return &FetchResult{Body: body, FinalURL: finalURL}, nil
}
