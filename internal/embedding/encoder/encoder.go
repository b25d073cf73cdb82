// Package encoder embeds texts with a pretrained transformer encoder served
// behind a feature-extraction endpoint. The endpoint returns the hidden state
// of every token; the vector of a text is its first ([CLS]) token.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultBatchSize = 32

// Config configures the encoder client.
type Config struct {
	URL       string
	Model     string
	APIKeyEnv string
	Timeout   time.Duration
	BatchSize int
}

// Client is a feature-extraction client with first-token pooling.
type Client struct {
	url       string
	model     string
	apiKey    string
	batchSize int
	dimension int
	client    *http.Client
}

// NewClient creates an encoder client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("encoder %q: no endpoint url configured", cfg.Model)
	}
	var key string
	if cfg.APIKeyEnv != "" {
		if key = os.Getenv(cfg.APIKeyEnv); key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &Client{
		url:       cfg.URL,
		model:     cfg.Model,
		apiKey:    key,
		batchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: t},
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "encoder:" + c.model }

// Prepare is not required for a pretrained encoder.
func (c *Client) Prepare([]string) error { return nil }

// Dimension returns the hidden size seen so far, 0 before the first call.
func (c *Client) Dimension() int { return c.dimension }

type request struct {
	Inputs []string `json:"inputs"`
	Model  string   `json:"model,omitempty"`
}

// EmbedBatch runs the encoder over texts and pools the first token of each.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		hidden, err := c.forward(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(hidden) != end-start {
			return nil, fmt.Errorf("encoder: got %d outputs for %d texts", len(hidden), end-start)
		}
		for i, states := range hidden {
			if len(states) == 0 {
				return nil, fmt.Errorf("encoder: no token states for text %d", start+i)
			}
			cls := states[0]
			if c.dimension == 0 {
				c.dimension = len(cls)
			}
			if len(cls) != c.dimension {
				return nil, fmt.Errorf("encoder: hidden size %d, want %d", len(cls), c.dimension)
			}
			out = append(out, cls)
		}
	}
	return out, nil
}

// forward returns the hidden states shaped text × token × dim.
func (c *Client) forward(ctx context.Context, texts []string) ([][][]float64, error) {
	body, err := json.Marshal(request{Inputs: texts, Model: c.model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("encoder request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("encoder failed: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var hidden [][][]float64
	if err := json.NewDecoder(resp.Body).Decode(&hidden); err != nil {
		return nil, fmt.Errorf("decode encoder response: %w", err)
	}
	return hidden, nil
}
