// Package analysis talks to the third-party analysis service that turns
// a race's runner records into recommended picks. The pipeline only
// depends on the shape of the input and output records; everything the
// service says beyond that is treated as unvalidated free text.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// Provider is one analysis backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Analyze submits one race and returns the decoded response. A
	// transport-level failure after retries is returned as an error;
	// an unparsable response is not an error, it comes back as a
	// Response with only Raw set.
	Analyze(ctx context.Context, race model.Race) (*Response, error)

	// IsAvailable checks the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Response is the analysis service's output for one race. When the
// service's text could not be parsed even after salvage, Shortlist is
// empty and Raw holds the original text for diagnostics; callers treat
// that as "no usable picks".
type Response struct {
	Shortlist []model.AnalysisPick `json:"shortlist"`
	Raw       string               `json:"raw,omitempty"`
}

// BuildPrompt renders one race into the analysis request. The response
// contract is stated explicitly because the decoder expects a shortlist
// object.
func BuildPrompt(race model.Race) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Race: %s %s\nRacecard: %s\n\nRunners:\n", race.Course, race.Time, race.URL)
	for _, r := range race.Runners {
		fmt.Fprintf(&b, "- name: %s", r.Name)
		if r.Jockey != "" {
			fmt.Fprintf(&b, " | jockey: %s", r.Jockey)
		}
		if r.Trainer != "" {
			fmt.Fprintf(&b, " | trainer: %s", r.Trainer)
		}
		if r.Form != "" {
			fmt.Fprintf(&b, " | form: %s", r.Form)
		}
		if r.Odds.Bookmaker != "" {
			fmt.Fprintf(&b, " | bookmaker price: %s", r.Odds.Bookmaker)
		}
		if r.Odds.Exchange != "" {
			fmt.Fprintf(&b, " | exchange price: %s", r.Odds.Exchange)
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Recommend the runners with the best winning chances relative to their price.
Respond with a single JSON object, no surrounding prose:

{"shortlist": [{"name": "...", "jockey": "...", "trainer": "...", "form": "...",
"odds_note": "...", "rationale": "...", "confidence": "high|medium|low"}]}

Only include runners listed above. odds_note must quote the price you based
the recommendation on.`)

	return b.String()
}
