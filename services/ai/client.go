// Package ai wraps the hosted language model used for appointment digitization
// and motivational notes. Any OpenAI-compatible endpoint works.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured is returned when no API key was provided.
	ErrNotConfigured = errors.New("ai provider is not configured")
	// ErrUpstream wraps failures of the provider call itself.
	ErrUpstream = errors.New("ai provider request failed")
	// ErrEmptyResponse means the provider answered without usable content.
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
	// ErrInvalidInput is returned for requests that cannot be sent.
	ErrInvalidInput = errors.New("invalid ai request")
)

// Options configures the client.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	VisionModel  string
	Timeout      time.Duration
	NoteMaxChars int
}

// Client issues single chat completion calls. It never retries.
type Client struct {
	api    *openai.Client
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// NewClient builds a client. Without an API key every call fails with ErrNotConfigured.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.VisionModel == "" {
		opts.VisionModel = opts.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.NoteMaxChars <= 0 {
		opts.NoteMaxChars = 600
	}

	c := &Client{
		opts:   opts,
		logger: logger.With().Str("component", "ai_client").Logger(),
		now:    time.Now,
	}
	if opts.APIKey == "" {
		return c
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
	c.api = openai.NewClientWithConfig(clientConfig)
	return c
}

// IsConfigured reports whether calls can be made.
func (c *Client) IsConfigured() bool {
	return c.api != nil
}

// complete runs one chat completion and returns the first choice's content.
func (c *Client) complete(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	started := c.now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error().Str("operation", operation).Int("status", apiErr.HTTPStatusCode).Str("type", apiErr.Type).Msg("AI provider rejected request")
		} else {
			c.logger.Error().Err(err).Str("operation", operation).Msg("AI provider request failed")
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info().
		Str("operation", operation).
		Str("model", req.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", c.now().Sub(started)).
		Msg("AI completion finished")

	return content, nil
}
