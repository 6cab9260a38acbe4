package model

import "time"

// Config holds the full runtime configuration.
type Config struct {
	Site        SiteConfig        `yaml:"site" json:"site"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Analysis    AnalysisConfig    `yaml:"analysis" json:"analysis"`
	Selection   SelectionConfig   `yaml:"selection" json:"selection"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// SiteConfig locates the racing site being harvested.
type SiteConfig struct {
	IndexURL    string `yaml:"index_url" json:"index_url"`
	RacecardSeg string `yaml:"racecard_segment" json:"racecard_segment"`
	ResultsSeg  string `yaml:"results_segment" json:"results_segment"`
	// HorseProfilePath marks anchors that point at a horse profile;
	// winner extraction keys off it.
	HorseProfilePath string `yaml:"horse_profile_path" json:"horse_profile_path"`
	// ConsentCookie is sent with every request as a best-effort
	// dismissal of the cookie banner. An empty value disables it.
	ConsentCookie string `yaml:"consent_cookie" json:"consent_cookie"`
	RespectRobots bool   `yaml:"respect_robots" json:"respect_robots"`
}

// HTTPConfig tunes the fetcher.
type HTTPConfig struct {
	NavTimeout   time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// ConcurrencyConfig bounds the extraction pool.
type ConcurrencyConfig struct {
	Workers     int           `yaml:"workers" json:"workers"`
	RatePerSec  float64       `yaml:"rate_per_sec" json:"rate_per_sec"`
	Burst       int           `yaml:"burst" json:"burst"`
	JitterMax   time.Duration `yaml:"jitter_max" json:"jitter_max"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// CacheConfig controls the in-memory page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// AnalysisConfig configures the analysis collaborator.
type AnalysisConfig struct {
	Provider    string `yaml:"provider" json:"provider"`
	Model       string `yaml:"model" json:"model"`
	APIKey      string `yaml:"-" json:"-"`
	BaseURL     string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs" json:"timeout_secs"`
	MaxTokens   int    `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries  int    `yaml:"max_retries" json:"max_retries"`
}

// SelectionConfig tunes the selection engine.
type SelectionConfig struct {
	MaxPicks int `yaml:"max_picks" json:"max_picks"`
	// RequireFullCombo switches to the stricter gate that demands a
	// full shortlist of profitable picks before the combo check runs.
	RequireFullCombo bool `yaml:"require_full_combo" json:"require_full_combo"`
}

// OutputConfig controls where archives and results land.
type OutputConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults. Flags, environment and the
// config file override these in the usual viper order.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			IndexURL:         "https://www.racingpost.com/racecards/",
			RacecardSeg:      "racecards",
			ResultsSeg:       "results",
			HorseProfilePath: "/profile/horse/",
			ConsentCookie:    "OptanonAlertBoxClosed=accepted",
			RespectRobots:    true,
		},
		HTTP: HTTPConfig{
			NavTimeout:   45 * time.Second,
			UserAgent:    "racepicks/1.0 (+https://github.com/konradsoares/UK-GB-IE-daily-horseracing-picks)",
			MaxBodyBytes: 4_000_000,
		},
		Concurrency: ConcurrencyConfig{
			Workers:    2,
			RatePerSec: 1,
			Burst:      2,
			JitterMax:  1500 * time.Millisecond,
			RetryDelay: 2 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Analysis: AnalysisConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 60,
			MaxTokens:   1200,
			MaxRetries:  3,
		},
		Selection: SelectionConfig{
			MaxPicks: 3,
		},
		Output: OutputConfig{
			DataDir: "~/.racepicks",
		},
	}
}
