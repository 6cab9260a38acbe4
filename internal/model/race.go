package model

import "strings"

// RaceLink identifies one race on the daily index page.
// Uniqueness key is the full (course, time, url) triple: the same course
// heading can list the same off time twice when the index page repeats a
// section for mobile layouts.
type RaceLink struct {
	Course string `json:"course"`
	Time   string `json:"time"`
	URL    string `json:"url"`
}

// OddsPair carries the two raw price strings shown on a racecard.
// Either side may be empty when the page omits it.
type OddsPair struct {
	Bookmaker string `json:"bookmaker,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
}

// Runner is one horse extracted from a racecard page.
// Name is the only required field; everything else is best-effort.
type Runner struct {
	Name    string   `json:"name"`
	Jockey  string   `json:"jockey,omitempty"`
	Trainer string   `json:"trainer,omitempty"`
	Form    string   `json:"form,omitempty"`
	Odds    OddsPair `json:"odds"`
}

// Race is the unit of work through the whole pipeline: extraction fills
// Runners, the analysis collaborator fills Shortlist, selection fills
// ComboProfitCheck, reconciliation fills Result and Hit.
type Race struct {
	Course  string   `json:"course"`
	Time    string   `json:"time"`
	URL     string   `json:"url"`
	Runners []Runner `json:"runners"`

	// SkippedFinished marks a racecard navigation that landed on the
	// results path: the race already ran, which is not an error.
	SkippedFinished bool `json:"skipped_finished,omitempty"`

	// Error records a per-race extraction failure. The batch never
	// aborts for one race; the message is kept for diagnostics.
	Error string `json:"_error,omitempty"`

	Shortlist        []ScoredPick  `json:"shortlist,omitempty"`
	ComboProfitCheck float64       `json:"combo_profit_check,omitempty"`
	Result           *WinnerRecord `json:"result,omitempty"`
	Hit              *bool         `json:"hit,omitempty"`
}

// NormalizeName folds case and collapses internal whitespace so that
// "Thunder   Bolt" and "thunder bolt" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SameHorse reports whether two display names refer to the same runner
// under case- and whitespace-insensitive comparison.
func SameHorse(a, b string) bool {
	return NormalizeName(a) != "" && NormalizeName(a) == NormalizeName(b)
}
