// Package vocab extracts ranked vocabulary and grammar items from chapter
// dialogue via a generative-model provider under a fixed output schema.
package vocab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoCandidates is returned when the provider responds without usable text.
var ErrNoCandidates = errors.New("vocab: no candidates in model response")

// ClientConfig configures the generative-model client.
type ClientConfig struct {
	BaseURL string        // default https://generativelanguage.googleapis.com
	Model   string        // default gemini-2.0-flash
	APIKey  string        // sent as x-goog-api-key header
	Timeout time.Duration // default 90s; generation is slow
	Logger  *slog.Logger
}

func (c *ClientConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls the provider's generateContent endpoint with a response
// schema pinned to JSON output.
type Client struct {
	cfg    ClientConfig
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	endpoint := strings.TrimRight(cfg.BaseURL, "/") +
		"/v1beta/models/" + url.PathEscape(cfg.Model) + ":generateContent"
	return &Client{
		cfg:    cfg,
		url:    endpoint,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger,
	}
}

// wire shapes, minimal fields only.
type genPart struct {
	Text string `json:"text"`
}
type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}
type genConfig struct {
	ResponseMIMEType string          `json:"response_mime_type,omitempty"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}
type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig *genConfig   `json:"generationConfig,omitempty"`
}
type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate submits one prompt with a required JSON response schema and
// returns the model's text payload.
func (c *Client) Generate(ctx context.Context, prompt string, schema json.RawMessage) (string, error) {
	body, err := json.Marshal(genRequest{
		Contents: []genContent{{Role: "user", Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: &genConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("vocab: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP POST %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("vocab: upstream %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var gr genResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("vocab: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoCandidates
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrNoCandidates
	}
	return text, nil
}
