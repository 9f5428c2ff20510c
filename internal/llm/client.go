// Package llm talks to an Ollama-compatible generate endpoint and builds the
// persona prompt sent to it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/cleia/internal/domain"
)

// maxErrorBody caps how much of an upstream error body is kept for logs.
const maxErrorBody = 512

// Generator produces a model reply for a fully built prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the generate endpoint once per prompt. It never retries.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for endpoint using model. A zero timeout keeps the
// transport default.
func NewClient(endpoint, model string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// GenerateRequest is the JSON body posted to the endpoint.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse accepts both reply shapes the endpoint family produces:
// a chat-style nested message and a generate-style top-level response.
type GenerateResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message,omitempty"`
	Response string `json:"response"`
}

// Reply returns the reply text, preferring message.content over response.
func (r *GenerateResponse) Reply() (string, bool) {
	if r.Message != nil && r.Message.Content != "" {
		return r.Message.Content, true
	}
	if r.Response != "" {
		return r.Response, true
	}
	return "", false
}

// Generate posts prompt and returns the reply text.
//
// Transport failures and non-2xx statuses wrap domain.ErrUpstreamUnavailable.
// Undecodable or empty replies wrap domain.ErrBadUpstream.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close generate response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrUpstreamUnavailable, err)
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrBadUpstream, err)
	}

	reply, ok := out.Reply()
	if !ok {
		slog.Debug("generate endpoint returned no reply", "raw", string(body))
		return "", domain.ErrBadUpstream
	}

	slog.Debug("generate completed",
		"model", c.model,
		"prompt_length", len(prompt),
		"reply_length", len(reply),
		"duration", time.Since(start),
	)
	return reply, nil
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
