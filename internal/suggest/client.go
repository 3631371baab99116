// Package suggest asks a generative text service for conversation starters.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Separator joins suggestions in a single string.
const Separator = "||"

// StubSuggestion is returned in stub mode.
const StubSuggestion = "What's a hobby you've recently started?||If you could have dinner with any historical figure, who would it be?||What's a simple thing that makes you happy?"

// ErrEmptyResponse is returned when the service produced no usable text.
var ErrEmptyResponse = errors.New("empty suggestion response")

// Client calls the Gemini generateContent endpoint
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	prompt     *Prompt
	httpClient *http.Client
	stubMode   bool
}

// NewClient creates a new suggestion client with the given configuration
func NewClient(baseURL, model, apiKey string, prompt *Prompt, timeout time.Duration, stubMode bool) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: timeout},
		stubMode:   stubMode,
	}
}

// Suggest returns normalized "||"-separated questions.
func (c *Client) Suggest(ctx context.Context) (string, error) {
	if c.stubMode {
		return StubSuggestion, nil
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: c.prompt.Text}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: c.prompt.MaxOutputTokens,
			Temperature:     c.prompt.Temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	suggestion := Normalize(out.Candidates[0].Content.Parts[0].Text)
	if suggestion == "" {
		return "", ErrEmptyResponse
	}
	return suggestion, nil
}

// Normalize splits s on the separator, trims each part, drops empty parts
// and joins the rest back together.
func Normalize(s string) string {
	parts := strings.Split(s, Separator)
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}
