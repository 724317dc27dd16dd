package gen

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StreamFunc receives one generation delta and the source URLs grounding it,
// in arrival order.
type StreamFunc func(delta string, sources []string)

// Streamer produces a text response incrementally, for the command window's
// typed prompts.
type Streamer interface {
	StreamResponse(ctx context.Context, prompt string, fn StreamFunc) error
}

type streamRequest struct {
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type streamChunk struct {
	Delta   string   `json:"delta"`
	Sources []string `json:"sources,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// StreamResponse posts a prompt and reads newline-delimited JSON chunks until
// the stream ends, invoking fn per chunk.
func (c *Client) StreamResponse(ctx context.Context, prompt string, fn StreamFunc) error {
	if !c.IsAvailable() {
		return fmt.Errorf("generation backend not configured")
	}

	payload, err := json.Marshal(streamRequest{Prompt: prompt, Stream: true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/generate", strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			c.logger.Warn().Err(err).Str("line", line).Msg("Unparseable stream chunk")
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("generation: %s", chunk.Error)
		}
		if chunk.Delta != "" || len(chunk.Sources) > 0 {
			fn(chunk.Delta, chunk.Sources)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return scanner.Err()
}
