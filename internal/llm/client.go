// Package llm talks to an OpenAI-compatible chat completion endpoint and
// wraps it with the fallback behavior the assistant depends on.
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
)

const (
	// RoleSystem marks the persona and catalog excerpt message.
	RoleSystem = "system"
	// RoleUser marks a customer message.
	RoleUser = "user"
	// RoleAssistant marks a model reply.
	RoleAssistant = "assistant"
)

// ErrCapacityExceeded indicates the provider rejected the request as too
// large or too frequent (HTTP 429). The gateway retries once with a
// minimized prompt before giving up.
var ErrCapacityExceeded = errors.New("llm: capacity exceeded")

// Message is one entry in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completer produces a chat completion for a request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ClientConfig configures the completion client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single HTTP call. Defaults to 60s.
	Timeout time.Duration
	// MaxRetries bounds retries on transient 5xx responses. Defaults to 2.
	MaxRetries int
}

// Client calls a chat completions endpoint. Transient server errors are
// retried with exponential backoff; 429 maps to ErrCapacityExceeded and is
// never retried here because the caller retries with a smaller prompt
// instead.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient validates the config and returns a completion client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("llm: base url is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type completionPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("llm: no messages")
	}

	body, err := json.Marshal(completionPayload{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) doRequest(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read completion response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, ErrCapacityExceeded
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, truncate(raw, 200))
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, errors.New("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
