package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const (
	defaultModel     = "text-embedding-3-small"
	defaultBatchSize = 256
)

// Client is a sentence embedding backend for OpenAI-compatible endpoints.
type Client struct {
	client    openai.Client
	model     string
	batchSize int
	limiter   *rate.Limiter
	dimension int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	BatchSize         int
	RequestsPerSecond float64
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		// a failed embedding run is re-run as a whole
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai:" + c.model }

// Prepare is not required for remote embedding.
func (c *Client) Prepare([]string) error { return nil }

// Dimension returns the width of the vectors returned so far, 0 before the first call.
func (c *Client) Dimension() int { return c.dimension }

// EmbedBatch embeds texts in request-sized chunks, preserving order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		chunk := texts[start:end]
		resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunk},
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(chunk) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts", len(resp.Data), len(chunk))
		}
		for _, d := range resp.Data {
			i := int(d.Index)
			if i < 0 || i >= len(chunk) {
				return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
			}
			out[start+i] = d.Embedding
		}
	}
	for _, v := range out {
		if c.dimension == 0 {
			c.dimension = len(v)
		}
		if len(v) != c.dimension {
			return nil, fmt.Errorf("openai embeddings: mixed dimensions %d and %d", c.dimension, len(v))
		}
	}
	return out, nil
}
