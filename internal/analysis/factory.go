package analysis

import (
	"fmt"
	"strings"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// NewProvider creates the configured analysis provider. An empty
// provider name disables analysis and returns nil without error.
func NewProvider(cfg model.AnalysisConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown analysis provider: %s (supported: openai)", cfg.Provider)
	}
}
