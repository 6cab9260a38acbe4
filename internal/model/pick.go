package model

// AnalysisPick is one recommendation returned by the analysis
// collaborator for a race. Except for Name, every field is unvalidated
// free text exactly as the collaborator produced it.
type AnalysisPick struct {
	Name       string `json:"name"`
	Jockey     string `json:"jockey,omitempty"`
	Trainer    string `json:"trainer,omitempty"`
	Form       string `json:"form,omitempty"`
	OddsNote   string `json:"odds_note,omitempty"`
	Rationale  string `json:"rationale,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

// ScoredPick is an AnalysisPick after odds normalization and expected
// value scoring. OddsDec is nil when no usable price could be parsed
// from the pick's odds note.
type ScoredPick struct {
	AnalysisPick

	OddsDec       *float64 `json:"oddsDec"`
	Probability   float64  `json:"probability"`
	ExpectedValue float64  `json:"expected_value"`
}

// SelectionResult is the per-race shortlist that survived the selection
// gate. Races that fail the gate produce no SelectionResult at all.
type SelectionResult struct {
	Course           string       `json:"course"`
	Time             string       `json:"time"`
	URL              string       `json:"url"`
	Shortlist        []ScoredPick `json:"shortlist"`
	ComboProfitCheck float64      `json:"combo_profit_check"`
}
