package selection

import (
	"sort"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// comboStake is the total outlay implied by the combo profit check: a
// one-unit stake on each of the (up to) three shortlisted picks.
const comboStake = 3

// Engine turns the analysis collaborator's raw picks into a capped,
// profit-checked shortlist. It is a pure function of its input: the same
// picks always produce the same SelectionResult.
type Engine struct {
	maxPicks         int
	requireFullCombo bool
}

// NewEngine creates an engine from configuration. maxPicks below 1 falls
// back to the default cap of 3.
func NewEngine(cfg model.SelectionConfig) *Engine {
	maxPicks := cfg.MaxPicks
	if maxPicks < 1 {
		maxPicks = 3
	}
	return &Engine{
		maxPicks:         maxPicks,
		requireFullCombo: cfg.RequireFullCombo,
	}
}

// ExpectedValue computes the probability-weighted net profit per unit
// stake: p*(odds-1) - (1-p). Unavailable odds or a zero probability
// yield -1, which is never positive and therefore never survives
// filtering.
func ExpectedValue(probability float64, oddsDec *float64) float64 {
	if oddsDec == nil || probability <= 0 {
		return -1
	}
	return probability*(*oddsDec-1) - (1 - probability)
}

// Score normalizes one pick's odds and computes its adjusted probability
// and expected value.
func (e *Engine) Score(pick model.AnalysisPick) model.ScoredPick {
	oddsDec := NormalizeOdds(pick.OddsNote)
	probability := AdjustedProbability(oddsDec, pick.Confidence, pick.Form)

	return model.ScoredPick{
		AnalysisPick:  pick,
		OddsDec:       oddsDec,
		Probability:   probability,
		ExpectedValue: ExpectedValue(probability, oddsDec),
	}
}

// Select scores every pick for a race, filters to positive expected
// value, ranks by adjusted probability, caps the shortlist and applies
// the combo profit gate. It returns nil when the race fails selection:
// failed races are dropped, never emitted with an empty shortlist.
func (e *Engine) Select(race model.Race, picks []model.AnalysisPick) *model.SelectionResult {
	var scored []model.ScoredPick
	for _, pick := range picks {
		sp := e.Score(pick)
		if sp.ExpectedValue > 0 {
			scored = append(scored, sp)
		}
	}

	// Probability, not EV, is the ranking key. The sort is stable so
	// equal probabilities keep the collaborator's original order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Probability > scored[j].Probability
	})

	if len(scored) > e.maxPicks {
		scored = scored[:e.maxPicks]
	}

	if len(scored) == 0 {
		return nil
	}
	if e.requireFullCombo && len(scored) < e.maxPicks {
		return nil
	}

	combo := comboProfit(scored)
	if combo <= 0 {
		return nil
	}

	return &model.SelectionResult{
		Course:           race.Course,
		Time:             race.Time,
		URL:              race.URL,
		Shortlist:        scored,
		ComboProfitCheck: combo,
	}
}

// comboProfit scans the shortlist in rank order and returns the first
// pick's (odds - comboStake) that is positive: with a unit stake on each
// of three picks and exactly one winning, that pick alone must cover the
// whole outlay. No qualifying price means -1.
func comboProfit(shortlist []model.ScoredPick) float64 {
	for _, pick := range shortlist {
		if pick.OddsDec == nil {
			continue
		}
		if profit := *pick.OddsDec - comboStake; profit > 0 {
			return profit
		}
	}
	return -1
}
