// Package client provides a Go client for the Sales Engine API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the Sales Engine HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates an API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session identifies a conversation on the server.
type Session struct {
	SessionID string `json:"sessionId"`
}

// Reply is the assistant's answer to a message.
type Reply struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}

// CatalogStatus reports the active catalog size.
type CatalogStatus struct {
	Vehicles int `json:"vehicles"`
}

// CreateSession starts a new conversation.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage sends a customer message and returns the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*Reply, error) {
	body := map[string]string{"message": message}
	var out Reply
	path := fmt.Sprintf("/api/v1/sessions/%s/messages", sessionID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory resets a conversation on the server.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/history", sessionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CatalogStatus returns the number of vehicles being served.
func (c *Client) CatalogStatus(ctx context.Context) (*CatalogStatus, error) {
	var out CatalogStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/catalog/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadCatalog re-reads the inventory database and rebuilds the index.
func (c *Client) ReloadCatalog(ctx context.Context) (*CatalogStatus, error) {
	var out CatalogStatus
	if err := c.do(ctx, http.MethodPost, "/api/v1/catalog/reload", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
