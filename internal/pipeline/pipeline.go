package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/analysis"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/cache"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/selection"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/storage"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/worker"
)

// Pipeline wires the extraction stages, the analysis collaborator and
// the selection engine into the two runnable flows: the daily picks run
// and the past-date result reconciliation.
type Pipeline struct {
	cfg  *model.Config
	log  *logrus.Logger
	disc *Discovery
	runs *RunnerExtractor
	ress *ResultExtractor
	prov analysis.Provider
	eng  *selection.Engine
	stor *storage.Store
}

// New builds the pipeline from configuration.
func New(cfg *model.Config, log *logrus.Logger) (*Pipeline, error) {
	var pages *cache.PageCache
	if cfg.Cache.Enabled {
		pages = cache.New(cfg.Cache.TTL)
	}

	fetcher := NewFetcher(cfg.HTTP, cfg.Site, pages)
	limiter := worker.NewLimiter(cfg.Concurrency.RatePerSec, cfg.Concurrency.Burst)

	provider, err := analysis.NewProvider(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("configure analysis provider: %w", err)
	}

	store, err := storage.New(cfg.Output.DataDir)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:  cfg,
		log:  log,
		disc: NewDiscovery(fetcher, cfg.Site),
		runs: NewRunnerExtractor(fetcher, limiter, log, cfg.Site, cfg.Concurrency),
		ress: NewResultExtractor(fetcher, limiter, log, cfg.Site, cfg.Concurrency),
		prov: provider,
		eng:  selection.NewEngine(cfg.Selection),
		stor: store,
	}, nil
}

// RunPicks executes the daily flow: discover race links, extract runners
// with bounded parallelism, submit each race to the analysis
// collaborator, select shortlists, and archive the day. Discovery
// failure is fatal; everything downstream is scoped to a single race.
func (p *Pipeline) RunPicks(ctx context.Context, date string) (*storage.Archive, error) {
	links, err := p.disc.Discover(ctx, p.cfg.Site.IndexURL)
	if err != nil {
		return nil, err
	}
	p.log.WithField("links", len(links)).Info("discovered race links")

	races := p.runs.ExtractAll(ctx, links)

	archive := &storage.Archive{Date: date, Races: []model.Race{}}
	for _, race := range races {
		selected, ok := p.selectRace(ctx, race)
		if !ok {
			continue
		}
		archive.Races = append(archive.Races, selected)
	}

	if err := p.stor.SavePicks(archive); err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"date":  date,
		"races": len(archive.Races),
	}).Info("archived daily picks")

	return archive, nil
}

// selectRace pushes one extracted race through analysis and selection.
// Races that produce no shortlist are dropped; per-race analysis
// failures are logged and treated as "no usable picks".
func (p *Pipeline) selectRace(ctx context.Context, race model.Race) (model.Race, bool) {
	fields := logrus.Fields{"course": race.Course, "time": race.Time, "url": race.URL}

	switch {
	case race.SkippedFinished:
		p.log.WithFields(fields).Info("race already finished, skipped")
		return race, false
	case race.Error != "":
		p.log.WithFields(fields).WithField("error", race.Error).Warn("race extraction failed")
		return race, false
	case len(race.Runners) == 0:
		p.log.WithFields(fields).Warn("no runners extracted")
		return race, false
	case p.prov == nil:
		return race, false
	}

	resp, err := p.prov.Analyze(ctx, race)
	if err != nil {
		p.log.WithFields(fields).WithError(err).Warn("analysis failed")
		return race, false
	}
	if len(resp.Shortlist) == 0 {
		if resp.Raw != "" {
			p.log.WithFields(fields).Debug("analysis response unparsable, no usable picks")
		}
		return race, false
	}

	result := p.eng.Select(race, resp.Shortlist)
	if result == nil {
		p.log.WithFields(fields).Debug("race failed selection gate")
		return race, false
	}

	race.Shortlist = result.Shortlist
	race.ComboProfitCheck = result.ComboProfitCheck
	p.log.WithFields(fields).WithFields(logrus.Fields{
		"picks": len(result.Shortlist),
		"combo": result.ComboProfitCheck,
	}).Info("race selected")

	return race, true
}

// RunResults reconciles the archived picks for a past date against the
// actual winners. The archive is updated in place with {result, hit} per
// race and a results file is written alongside it.
func (p *Pipeline) RunResults(ctx context.Context, date string) (*storage.ResultsFile, error) {
	archive, err := p.stor.LoadPicks(date)
	if err != nil {
		return nil, err
	}

	records := p.ress.ExtractAll(ctx, archive.Races)

	hits := 0
	for i := range records {
		archive.Races[i].Result = records[i].Winner
		hit := records[i].Hit
		archive.Races[i].Hit = &hit
		if hit {
			hits++
		}
	}

	results := &storage.ResultsFile{Date: date, Results: records}
	if err := p.stor.SaveResults(results); err != nil {
		return nil, err
	}
	if err := p.stor.UpdatePicks(archive); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"date":  date,
		"races": len(records),
		"hits":  hits,
	}).Info("reconciled results")

	return results, nil
}
