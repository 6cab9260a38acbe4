package model

// WinnerRecord is the race winner as extracted from a results page.
// SP is the starting price string when the page shows one.
type WinnerRecord struct {
	Name    string `json:"name"`
	SP      string `json:"sp,omitempty"`
	Jockey  string `json:"jockey,omitempty"`
	Trainer string `json:"trainer,omitempty"`
}

// ResultRecord reconciles one archived race against its actual outcome.
// Winner is nil when no extraction strategy matched. Hit is true iff the
// winner's normalized name matches a shortlisted pick.
type ResultRecord struct {
	Course string        `json:"course"`
	Time   string        `json:"time"`
	URL    string        `json:"url"`
	Winner *WinnerRecord `json:"winner"`
	Hit    bool          `json:"hit"`

	Error string `json:"_error,omitempty"`
}

// HitShortlist reports whether the winner appears in the shortlist under
// normalized-name comparison.
func HitShortlist(winner *WinnerRecord, shortlist []ScoredPick) bool {
	if winner == nil {
		return false
	}
	for _, pick := range shortlist {
		if SameHorse(winner.Name, pick.Name) {
			return true
		}
	}
	return false
}
