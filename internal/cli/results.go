package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/pipeline"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/storage"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results [date]",
	Short: "Reconcile an archived day's shortlists against the actual winners",
	Long: `Results revisits each archived race's results page, extracts the
winning runner, and marks every shortlist as hit or miss. The picks
archive is updated in place and a results file is written alongside it.

The date defaults to yesterday. An explicit date must be YYYY-MM-DD.

Example:
  racepicks results
  racepicks results 2026-08-30
  racepicks results --data-dir ./data`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory for archives (default from config)")
	resultsCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	resultsCmd.Flags().IntVar(&concurrency, "concurrency", 2, "max result pages in flight")
	resultsCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip the robots.txt check")
}

func runResults(cmd *cobra.Command, args []string) error {
	explicit := ""
	if len(args) == 1 {
		explicit = args[0]
	}
	// An invalid explicit date is rejected, never silently replaced by
	// the default.
	date, err := storage.ResolveDate(explicit, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := buildResultsConfig(cmd)
	log := newLogger(os.Stderr)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	results, err := p.RunResults(ctx, date)
	if errors.Is(err, storage.ErrNoArchive) {
		// Nothing was archived for that day; not a failure.
		fmt.Printf("No picks archive for %s, nothing to reconcile\n", date)
		return nil
	}
	if err != nil {
		return fmt.Errorf("results run failed: %w", err)
	}

	hits := 0
	for _, record := range results.Results {
		status := "miss"
		if record.Hit {
			status = "HIT"
			hits++
		}
		winner := "(no winner extracted)"
		if record.Winner != nil {
			winner = record.Winner.Name
		}
		fmt.Printf("  %s %s - %s [%s]\n", record.Course, record.Time, winner, status)
	}
	fmt.Printf("✓ %s: %d/%d shortlists hit\n", date, hits, len(results.Results))

	return nil
}

// buildResultsConfig is the reconciliation flow's config: no analysis
// provider is needed to read results pages.
func buildResultsConfig(cmd *cobra.Command) *model.Config {
	cfg := model.DefaultConfig()

	if dataDir != "" {
		cfg.Output.DataDir = dataDir
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	cfg.Site.RespectRobots = !noRobots
	cfg.Analysis.Provider = ""
	cfg.Output.Verbose = verbose

	return cfg
}
