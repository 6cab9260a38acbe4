package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/pipeline"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/storage"
)

var (
	indexURL         string
	dataDir          string
	userAgent        string
	navTimeout       time.Duration
	runTimeout       time.Duration
	concurrency      int
	noCache          bool
	noRobots         bool
	analysisProvider string
	analysisModel    string
	maxPicks         int
	strictCombo      bool
)

// picksCmd represents the picks command
var picksCmd = &cobra.Command{
	Use:   "picks",
	Short: "Harvest today's racecards and archive the day's shortlists",
	Long: `Picks runs the daily flow:
- Enumerate per-course race links from the index page
- Extract runners from every racecard with bounded parallelism
- Submit each race to the analysis service
- Filter recommendations to positive-expected-value shortlists (max 3
  per race, combo profit-checked)
- Archive the day under the data directory

Example:
  racepicks picks
  racepicks picks --concurrency 2 --data-dir ./data
  racepicks picks --analysis-model gpt-4o --strict-combo`,
	Args: cobra.NoArgs,
	RunE: runPicks,
}

func init() {
	rootCmd.AddCommand(picksCmd)

	picksCmd.Flags().StringVar(&indexURL, "index-url", "", "racecards index page (default from config)")
	picksCmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory for archives (default from config)")
	picksCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	picksCmd.Flags().DurationVar(&navTimeout, "nav-timeout", 45*time.Second, "per-navigation timeout")
	picksCmd.Flags().DurationVar(&runTimeout, "timeout", 45*time.Minute, "overall run timeout")
	picksCmd.Flags().IntVar(&concurrency, "concurrency", 2, "max race pages in flight")
	picksCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache")
	picksCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip the robots.txt check")

	picksCmd.Flags().StringVar(&analysisProvider, "analysis-provider", "openai", "analysis provider (openai)")
	picksCmd.Flags().StringVar(&analysisModel, "analysis-model", "gpt-4o-mini", "analysis model name")
	picksCmd.Flags().IntVar(&maxPicks, "max-picks", 3, "shortlist cap per race")
	picksCmd.Flags().BoolVar(&strictCombo, "strict-combo", false, "require a full shortlist before the combo profit check")
}

// buildConfig folds defaults, the config file and flags into one Config.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()

	if indexURL != "" {
		cfg.Site.IndexURL = indexURL
	}
	if dataDir != "" {
		cfg.Output.DataDir = dataDir
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if cmd.Flags().Changed("nav-timeout") {
		cfg.HTTP.NavTimeout = navTimeout
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	cfg.Site.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	cfg.Analysis.Provider = analysisProvider
	cfg.Analysis.Model = analysisModel
	cfg.Selection.MaxPicks = maxPicks
	cfg.Selection.RequireFullCombo = strictCombo

	if cfg.Analysis.Provider == "openai" {
		cfg.Analysis.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Analysis.BaseURL = os.Getenv("OPENAI_BASE_URL")
		if cfg.Analysis.APIKey == "" && cfg.Analysis.BaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	return cfg, nil
}

func runPicks(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(os.Stderr)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	date := storage.Today(time.Now())
	archive, err := p.RunPicks(ctx, date)
	if err != nil {
		return fmt.Errorf("picks run failed: %w", err)
	}

	fmt.Printf("✓ %s: %d race(s) selected\n", date, len(archive.Races))
	for _, race := range archive.Races {
		fmt.Printf("  %s %s - %d pick(s), combo %.2f\n",
			race.Course, race.Time, len(race.Shortlist), race.ComboProfitCheck)
	}

	return nil
}
