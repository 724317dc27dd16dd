// Package gen talks to the generation backend for image synthesis and web
// search, the two tools the live model delegates out of band.
package gen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ImageGenerator produces an image for a prompt. A nil byte slice with a nil
// error never happens; failures are errors.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, style string) ([]byte, error)
}

// Searcher answers a query with a short text summary.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Config holds generation backend settings.
type Config struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
}

// Client implements ImageGenerator and Searcher over the backend's HTTP API.
type Client struct {
	apiKey string
	client *http.Client
	logger zerolog.Logger
	config *Config
}

// NewClient creates a generation client.
func NewClient(logger zerolog.Logger, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GBOT_GEN_API_KEY")
	}

	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With().Str("component", "gen").Logger(),
		config: config,
	}
}

// IsAvailable checks whether a backend is configured.
func (c *Client) IsAvailable() bool {
	return c.config.BaseURL != ""
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

type imageResponse struct {
	Image string `json:"image"` // base64
	Error string `json:"error,omitempty"`
}

// GenerateImage renders a prompt in the given art style.
func (c *Client) GenerateImage(ctx context.Context, prompt, style string) ([]byte, error) {
	startTime := time.Now()

	var resp imageResponse
	if err := c.post(ctx, "/v1/images", imageRequest{Prompt: prompt, Style: style}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("image generation: %s", resp.Error)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("backend returned empty image")
	}

	c.logger.Info().
		Int("bytes", len(img)).
		Str("style", style).
		Dur("elapsed", time.Since(startTime)).
		Msg("Image generated")
	return img, nil
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// Search returns a text summary for a query.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	var resp searchResponse
	if err := c.post(ctx, "/v1/search", searchRequest{Query: query}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("search: %s", resp.Error)
	}
	return resp.Summary, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if !c.IsAvailable() {
		return fmt.Errorf("generation backend not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
