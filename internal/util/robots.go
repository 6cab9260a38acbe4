package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker gates fetches on the racing site's robots.txt. Results
// are cached per host for the lifetime of the run; a run only ever talks
// to one or two hosts.
type RobotsChecker struct {
	groups     map[string]*robotstxt.RobotsData
	mu         sync.Mutex
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker identifying itself as userAgent.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		groups:     make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Allowed reports whether rawURL may be fetched. Failure to retrieve or
// parse robots.txt allows the fetch: the site owner's signal is advisory
// and its absence is not a block.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data := r.hostData(ctx, parsed.Scheme, parsed.Host)
	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, r.userAgent)
}

func (r *RobotsChecker) hostData(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	r.mu.Lock()
	data, ok := r.groups[host]
	r.mu.Unlock()
	if ok {
		return data
	}

	data = r.fetch(ctx, fmt.Sprintf("%s://%s/robots.txt", scheme, host))

	r.mu.Lock()
	r.groups[host] = data
	r.mu.Unlock()
	return data
}

// fetch returns nil when robots.txt cannot be retrieved or parsed.
func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
