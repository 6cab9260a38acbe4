package pipeline

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/worker"
)

// winningPosition matches the markings result pages use for the first
// horse home: "1", "1st", or "1/12" style position-of-field text.
var winningPosition = regexp.MustCompile(`^1(st)?$|^1/\d+$`)

var oddsLike = regexp.MustCompile(`^\d+(\.\d+)?$|^\d+/\d+$`)

// winnerStrategy is one way of reading a winner out of a results page.
// Strategies are pure: page structure in, record or nil out. They are
// tried in priority order and the first non-nil result wins.
type winnerStrategy func(doc *goquery.Document, horsePath string) *model.WinnerRecord

var winnerStrategies = []winnerStrategy{
	winnerFromTable,
	winnerFromCards,
	winnerFromFirstProfileAnchor,
}

// ResultExtractor visits each archived race's results page and extracts
// the winning runner.
type ResultExtractor struct {
	fetcher *Fetcher
	limiter *worker.Limiter
	log     *logrus.Logger

	racecardSeg string
	resultsSeg  string
	horsePath   string
	workers     int
	jitterMax   time.Duration
}

// NewResultExtractor wires a result extractor from configuration.
func NewResultExtractor(fetcher *Fetcher, limiter *worker.Limiter, log *logrus.Logger, site model.SiteConfig, conc model.ConcurrencyConfig) *ResultExtractor {
	return &ResultExtractor{
		fetcher:     fetcher,
		limiter:     limiter,
		log:         log,
		racecardSeg: site.RacecardSeg,
		resultsSeg:  site.ResultsSeg,
		horsePath:   site.HorseProfilePath,
		workers:     conc.Workers,
		jitterMax:   conc.JitterMax,
	}
}

// ExtractAll fans result extraction out over the archived races with
// bounded parallelism; output order matches input order. Hit is computed
// against each race's shortlist by normalized-name comparison.
func (e *ResultExtractor) ExtractAll(ctx context.Context, races []model.Race) []model.ResultRecord {
	return worker.Map(ctx, races, e.workers, func(ctx context.Context, _ int, race model.Race) model.ResultRecord {
		worker.Jitter(ctx, e.jitterMax)
		return e.Extract(ctx, race)
	})
}

// Extract processes one archived race. Failures are recorded on the
// ResultRecord and never abort the batch.
func (e *ResultExtractor) Extract(ctx context.Context, race model.Race) model.ResultRecord {
	record := model.ResultRecord{
		Course: race.Course,
		Time:   race.Time,
		URL:    race.URL,
	}

	resultsURL := e.ResultsURL(race.URL)

	if err := e.limiter.Wait(ctx, resultsURL); err != nil {
		record.Error = err.Error()
		return record
	}

	page, err := e.fetcher.Fetch(ctx, resultsURL)
	if err != nil {
		record.Error = err.Error()
		e.log.WithFields(logrus.Fields{
			"course": race.Course,
			"time":   race.Time,
			"url":    resultsURL,
		}).WithError(err).Warn("results navigation failed")
		return record
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		record.Error = err.Error()
		return record
	}

	record.Winner = extractWinner(doc, e.horsePath)
	record.Hit = model.HitShortlist(record.Winner, race.Shortlist)
	return record
}

// ResultsURL derives a race's results-page URL by substituting the
// racecard path segment. If the URL does not parse, a raw string
// substitution is used instead.
func (e *ResultExtractor) ResultsURL(racecardURL string) string {
	parsed, err := url.Parse(racecardURL)
	if err != nil || parsed.Host == "" {
		return strings.Replace(racecardURL, "/"+e.racecardSeg+"/", "/"+e.resultsSeg+"/", 1)
	}

	segments := strings.Split(parsed.Path, "/")
	for i, seg := range segments {
		if seg == e.racecardSeg {
			segments[i] = e.resultsSeg
			break
		}
	}
	parsed.Path = strings.Join(segments, "/")
	return parsed.String()
}

func extractWinner(doc *goquery.Document, horsePath string) *model.WinnerRecord {
	for _, strategy := range winnerStrategies {
		if winner := strategy(doc, horsePath); winner != nil {
			return winner
		}
	}
	return nil
}

// winnerFromTable scans table-like containers for a row whose position
// cell marks first place and reads the winner from that row.
func winnerFromTable(doc *goquery.Document, horsePath string) *model.WinnerRecord {
	var winner *model.WinnerRecord

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		pos := collapse(row.Find("td, th").First().Text())
		if !winningPosition.MatchString(pos) {
			return true
		}

		name := collapse(row.Find("a[href*='" + horsePath + "']").First().Text())
		if name == "" {
			return true
		}

		winner = &model.WinnerRecord{
			Name:    name,
			SP:      siblingOdds(row),
			Jockey:  collapse(row.Find("a[href*='/profile/jockey/']").First().Text()),
			Trainer: collapse(row.Find("a[href*='/profile/trainer/']").First().Text()),
		}
		return false
	})

	return winner
}

// siblingOdds finds a cell in the row whose text reads like a starting
// price. The position cell is skipped: "1" and "1/12" would both pass
// for a price.
func siblingOdds(row *goquery.Selection) string {
	sp := ""
	row.Find("td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		if text := collapse(cell.Text()); oddsLike.MatchString(text) {
			sp = text
			return false
		}
		return true
	})
	return sp
}

// winnerFromCards scans runner-card containers for the one whose
// position badge marks first place.
func winnerFromCards(doc *goquery.Document, horsePath string) *model.WinnerRecord {
	var winner *model.WinnerRecord

	doc.Find(".runner-card, .rp-raceResults__runner, li.result-runner").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		pos := collapse(card.Find(".position, .badge, .finish-position").First().Text())
		if !winningPosition.MatchString(pos) {
			return true
		}

		name := firstText(card, "a[href*='"+horsePath+"']", ".horse-name", ".name")
		if name == "" {
			return true
		}

		winner = &model.WinnerRecord{
			Name:    name,
			SP:      firstText(card, ".sp", ".price", ".starting-price"),
			Jockey:  firstText(card, ".jockey", "a[href*='/profile/jockey/']"),
			Trainer: firstText(card, ".trainer", "a[href*='/profile/trainer/']"),
		}
		return false
	})

	return winner
}

// winnerFromFirstProfileAnchor is the last resort: the first anchor
// anywhere pointing at a horse profile, with no other fields.
func winnerFromFirstProfileAnchor(doc *goquery.Document, horsePath string) *model.WinnerRecord {
	name := collapse(doc.Find("a[href*='" + horsePath + "']").First().Text())
	if name == "" {
		return nil
	}
	return &model.WinnerRecord{Name: name}
}
