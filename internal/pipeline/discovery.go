package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// ErrNoRaceLinks is returned when the daily index page yields no race
// links at all. That is a pipeline precondition failure: there is
// nothing to extract.
var ErrNoRaceLinks = errors.New("no race links found on index page")

var raceTimePattern = regexp.MustCompile(`^\d{1,2}[:.]\d{2}$`)

// Discovery enumerates per-course race URLs from the daily index page.
type Discovery struct {
	fetcher     *Fetcher
	racecardSeg string
}

// NewDiscovery creates a discovery stage reading race links via fetcher.
func NewDiscovery(fetcher *Fetcher, site model.SiteConfig) *Discovery {
	return &Discovery{fetcher: fetcher, racecardSeg: site.RacecardSeg}
}

// Discover loads the index page and returns every (course, time, url)
// race link it can find, deduplicated, in document order. The walk
// tracks the most recent course heading so each race-time anchor is
// attributed to the course section it appears under.
func (d *Discovery) Discover(ctx context.Context, indexURL string) ([]model.RaceLink, error) {
	page, err := d.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index page: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(page.Body)))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse index URL: %w", err)
	}

	var links []model.RaceLink
	course := ""

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4":
				if text := nodeText(n); text != "" {
					course = text
				}
			case "a":
				if link, ok := d.raceLink(n, base, course); ok {
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	links = dedupeLinks(links)
	if len(links) == 0 {
		return nil, ErrNoRaceLinks
	}
	return links, nil
}

// raceLink turns an anchor node into a RaceLink when its text looks like
// a race off time and its target is a racecard page.
func (d *Discovery) raceLink(n *html.Node, base *url.URL, course string) (model.RaceLink, bool) {
	text := nodeText(n)
	if !raceTimePattern.MatchString(text) {
		return model.RaceLink{}, false
	}

	href := ""
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
		}
	}
	resolved := resolveURL(base, href)
	if resolved == "" || !strings.Contains(resolved, "/"+d.racecardSeg+"/") {
		return model.RaceLink{}, false
	}

	return model.RaceLink{Course: course, Time: text, URL: resolved}, true
}

// resolveURL resolves a relative href against the page URL, keeping only
// http(s) targets.
func resolveURL(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// nodeText collects the trimmed text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func dedupeLinks(links []model.RaceLink) []model.RaceLink {
	seen := make(map[model.RaceLink]bool)
	var unique []model.RaceLink
	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique
}
