// Package llm provides the text-generation collaborator over an OpenAI-compatible
// chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

// ErrQuotaExceeded is returned on HTTP 429 from the API.
var ErrQuotaExceeded = errors.New("text generation quota exceeded")

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("text generation disabled")

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

const systemPrompt = "You are a concise personal-finance assistant. Follow the requested output format exactly."

// Config configures the client.
type Config struct {
	APIKey    string
	APIURL    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Client calls the chat completions endpoint through a circuit breaker.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *Breaker
	log        zerolog.Logger
}

var _ domain.TextGenerator = (*Client)(nil)

// NewClient creates a new text-generation client.
func NewClient(cfg Config, breaker *Breaker, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		log:        log.With().Str("client", "llm").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// BreakerState returns the breaker state for status reporting.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return StateClosed.String()
	}
	return c.breaker.State().String()
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	var text string
	call := func(ctx context.Context) error {
		var err error
		text, err = c.complete(ctx, prompt)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Text generation call finished")

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generation returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("text generation error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("text generation returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("text generation returned empty content")
	}
	return text, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
