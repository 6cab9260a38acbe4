package storage

import (
	"fmt"
	"time"
)

// DateLayout is the ISO date key used in filenames and archives.
const DateLayout = "2006-01-02"

// ResolveDate validates an explicit ISO date, or derives the default
// reconciliation date (the previous calendar day relative to now) when
// none is given. An invalid explicit date is rejected rather than
// silently substituted.
func ResolveDate(explicit string, now time.Time) (string, error) {
	if explicit == "" {
		return now.AddDate(0, 0, -1).Format(DateLayout), nil
	}

	parsed, err := time.Parse(DateLayout, explicit)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", explicit, err)
	}
	return parsed.Format(DateLayout), nil
}

// Today formats now as a date key.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
