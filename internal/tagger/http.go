// Package tagger provides a part-of-speech tagger backed by an HTTP tagging
// service (for example a spaCy pipeline behind a small web server).
package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bibsent/internal/domain"
)

// Client tags text by POSTing it to a tagging service.
type Client struct {
	url        string
	model      string
	client     *http.Client
	maxRetries int
}

// Config configures the tagging service client.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// NewClient creates a new tagger client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("tagger url is required")
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 3,
	}, nil
}

type tagRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type tagResponse struct {
	Tokens []struct {
		Text  string `json:"text"`
		POS   string `json:"pos"`
		Lemma string `json:"lemma"`
	} `json:"tokens"`
}

// Tag returns the tokens of text with their grammatical category and lemma.
func (c *Client) Tag(ctx context.Context, text string) ([]domain.TaggedToken, error) {
	data, err := json.Marshal(tagRequest{Text: text, Model: c.model})
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() == nil && attempt < c.maxRetries {
				if err := sleep(ctx, retryDelay(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("tagger request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			wait := retryDelay(attempt)
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				wait = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("tagger failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("tagger read: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("tagger failed: %s", resp.Status)
		}

		var out tagResponse
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("tagger decode: %w", err)
		}
		tokens := make([]domain.TaggedToken, len(out.Tokens))
		for i, t := range out.Tokens {
			tokens[i] = domain.TaggedToken{Text: t.Text, POS: t.POS, Lemma: t.Lemma}
		}
		return tokens, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
