package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = float32(0.2)
	maxRetries         = 4
	baseBackoff        = time.Second
)

// GeminiConfig holds the tunables for the Gemini completion client.
type GeminiConfig struct {
	APIKey      string
	Model       string        // default "gemini-2.0-flash"
	CallTimeout time.Duration // per-call deadline, 0 disables
	Logger      *slog.Logger
}

// GeminiClient implements Client using Google's Gemini API. Rate-limit
// responses are retried with exponential backoff; other errors surface
// immediately.
type GeminiClient struct {
	client      *genai.Client
	model       string
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewGeminiClient builds a Gemini-backed completion client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		callTimeout: cfg.CallTimeout,
		logger:      cfg.Logger,
	}, nil
}

// CompleteWithSystem sends a system instruction plus a user message and
// returns the raw model text.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultTemperature),
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	var out string
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(baseBackoff))
	start := time.Now()

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
		if err != nil {
			if isRateLimited(err) {
				c.logger.Warn("model rate limited, backing off", "model", c.model)
				return retry.RetryableError(err)
			}
			return err
		}
		out = resp.Text()
		if out == "" {
			return fmt.Errorf("empty completion from model %s", c.model)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	c.logger.Debug("completion finished",
		"model", c.model,
		"elapsed", time.Since(start),
		"response_len", len(out),
	)
	return out, nil
}

// isRateLimited reports whether err is a 429 / quota-exhausted signal.
func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
