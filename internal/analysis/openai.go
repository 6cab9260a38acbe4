package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// sleepFunc is the delay between retry attempts, injectable for tests.
var sleepFunc = time.Sleep

// OpenAIProvider implements Provider against the OpenAI chat API, or any
// compatible endpoint via a custom base URL.
type OpenAIProvider struct {
	client *openai.Client
	cfg    model.AnalysisConfig
}

// NewOpenAIProvider creates the provider. An API key is required unless
// a custom base URL points at an unauthenticated endpoint.
func NewOpenAIProvider(cfg model.AnalysisConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("analysis API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks the API is reachable with the configured key.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Analyze submits one race and decodes the response. Rate-limit and
// server errors are retried with an increasing delay before the failure
// is surfaced; anything the service returns as text is salvaged rather
// than rejected.
func (p *OpenAIProvider) Analyze(ctx context.Context, race model.Race) (*Response, error) {
	maxRetries := p.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	timeout := time.Duration(p.cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	req := openai.ChatCompletionRequest{
		Model: p.modelName(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a horse racing form analyst. You respond only with the requested JSON object.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(race),
			},
		},
		MaxTokens:   p.maxTokens(),
		Temperature: 0.2,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := p.client.CreateChatCompletion(attemptCtx, req)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("empty analysis response")
			}
			return DecodeResponse(resp.Choices[0].Message.Content), nil
		}

		lastErr = err
		if !retryable(err) || attempt == maxRetries {
			break
		}
		sleepFunc(time.Duration(attempt) * 2 * time.Second)
	}

	return nil, fmt.Errorf("analysis request: %w", lastErr)
}

// retryable reports whether the API error is worth another attempt:
// rate limiting and server-side failures are, everything else is not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
}

func (p *OpenAIProvider) modelName() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return openai.GPT4oMini
}

func (p *OpenAIProvider) maxTokens() int {
	if p.cfg.MaxTokens > 0 {
		return p.cfg.MaxTokens
	}
	return 1200
}
