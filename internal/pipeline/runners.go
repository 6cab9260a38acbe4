package pipeline

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/worker"
)

// runnerSelectors are tried in order against a racecard page; markup
// varies between course pages and across site revisions.
var runnerSelectors = []string{
	"div.RC-runnerRow",
	"div.runner-row",
	"li.runner",
}

// RunnerExtractor visits each race page and extracts runner records.
// One race's failure never aborts the batch: failures are folded into
// the returned Race as data.
type RunnerExtractor struct {
	fetcher *Fetcher
	limiter *worker.Limiter
	log     *logrus.Logger

	resultsSeg string
	workers    int
	jitterMax  time.Duration
	retryDelay time.Duration
}

// NewRunnerExtractor wires an extractor from configuration.
func NewRunnerExtractor(fetcher *Fetcher, limiter *worker.Limiter, log *logrus.Logger, site model.SiteConfig, conc model.ConcurrencyConfig) *RunnerExtractor {
	return &RunnerExtractor{
		fetcher:    fetcher,
		limiter:    limiter,
		log:        log,
		resultsSeg: site.ResultsSeg,
		workers:    conc.Workers,
		jitterMax:  conc.JitterMax,
		retryDelay: conc.RetryDelay,
	}
}

// ExtractAll fans the extractor out over all race links with bounded
// parallelism. The returned slice matches the input order.
func (e *RunnerExtractor) ExtractAll(ctx context.Context, links []model.RaceLink) []model.Race {
	return worker.Map(ctx, links, e.workers, func(ctx context.Context, _ int, link model.RaceLink) model.Race {
		worker.Jitter(ctx, e.jitterMax)
		return e.Extract(ctx, link)
	})
}

// Extract processes one race link. The race is always returned: empty
// runners plus a marker for finished races, empty runners plus an error
// message for failures.
func (e *RunnerExtractor) Extract(ctx context.Context, link model.RaceLink) model.Race {
	race := model.Race{
		Course:  link.Course,
		Time:    link.Time,
		URL:     link.URL,
		Runners: []model.Runner{},
	}

	// Bounded retry instead of recursion: some racecards populate the
	// runner list late and come back empty on the first read.
	const maxAttempts = 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx, link.URL); err != nil {
			race.Error = err.Error()
			return race
		}

		page, err := e.fetchAttempt(ctx, link.URL, attempt)
		if err != nil {
			race.Error = err.Error()
			e.log.WithFields(logrus.Fields{
				"course": link.Course,
				"time":   link.Time,
				"url":    link.URL,
			}).WithError(err).Warn("racecard navigation failed")
			return race
		}

		// Landing on the results path means the race already ran.
		if strings.Contains(page.FinalURL, "/"+e.resultsSeg+"/") {
			race.SkippedFinished = true
			return race
		}

		runners, err := parseRunners(page.Body)
		if err != nil {
			race.Error = err.Error()
			return race
		}
		if len(runners) > 0 {
			race.Runners = runners
			return race
		}

		if attempt < maxAttempts {
			e.log.WithFields(logrus.Fields{
				"course": link.Course,
				"time":   link.Time,
			}).Debug("no runners on first read, retrying")
			select {
			case <-ctx.Done():
				race.Error = ctx.Err().Error()
				return race
			case <-time.After(e.retryDelay):
			}
		}
	}

	// Still empty after the retry: soft failure, not an error.
	return race
}

// fetchAttempt bypasses the page cache on retries so the second read
// actually hits the site again.
func (e *RunnerExtractor) fetchAttempt(ctx context.Context, url string, attempt int) (*FetchResult, error) {
	if attempt > 1 {
		return e.fetcher.FetchFresh(ctx, url)
	}
	return e.fetcher.Fetch(ctx, url)
}

// parseRunners extracts the runner blocks from racecard markup.
func parseRunners(body []byte) ([]model.Runner, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var runners []model.Runner
	for _, selector := range runnerSelectors {
		doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
			if r, ok := parseRunnerRow(row); ok {
				runners = append(runners, r)
			}
		})
		if len(runners) > 0 {
			break
		}
	}
	return runners, nil
}

func parseRunnerRow(row *goquery.Selection) (model.Runner, bool) {
	name := firstText(row,
		"a[href*='/profile/horse/']",
		".RC-runnerName",
		".runner-name",
	)
	if name == "" {
		return model.Runner{}, false
	}

	return model.Runner{
		Name:    name,
		Jockey:  stripLabel(firstText(row, ".RC-runnerInfo_jockey", ".runner-jockey"), "J:", "Jockey:"),
		Trainer: stripLabel(firstText(row, ".RC-runnerInfo_trainer", ".runner-trainer"), "T:", "Trainer:"),
		Form:    stripLabel(firstText(row, ".RC-runnerInfo_form", ".runner-form"), "Form:", "F:"),
		Odds: model.OddsPair{
			Bookmaker: stripSourceTag(firstText(row, ".RC-price", ".runner-price-bookmaker", ".price-bookmaker")),
			Exchange:  stripSourceTag(firstText(row, ".RC-exchangePrice", ".runner-price-exchange", ".price-exchange")),
		},
	}, true
}

// firstText returns the collapsed text of the first selector that
// matches anything under sel.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			if text := collapse(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// stripLabel removes a leading field label such as "J:" or "Trainer:".
func stripLabel(s string, labels ...string) string {
	for _, label := range labels {
		if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
			return strings.TrimSpace(s[len(label):])
		}
	}
	return s
}

// stripSourceTag removes a leading price-source label ("EXC 4.8",
// "BF 5/2") while leaving plain prices untouched.
func stripSourceTag(s string) string {
	fields := strings.Fields(s)
	if len(fields) >= 2 && !strings.ContainsAny(fields[0], "0123456789") {
		return strings.Join(fields[1:], " ")
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
