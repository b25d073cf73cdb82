// Package embedding selects embedding backends and persists embedding batches.
package embedding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bibsent/internal/config"
	"bibsent/internal/domain"
	"bibsent/internal/embedding/encoder"
	"bibsent/internal/embedding/openai"
	"bibsent/internal/embedding/tfidf"
)

// Backend identifies an embedding backend family.
type Backend string

const (
	BackendTFIDF   Backend = "tfidf"
	BackendOpenAI  Backend = "openai"
	BackendEncoder Backend = "encoder"
)

// ParseModel splits a configured model identifier into its backend and the
// backend-specific model name:
//
//	tfidf                     → tfidf
//	openai:<model>            → sentence embedding model
//	text-embedding-*          → sentence embedding model
//	encoder:<model>           → pretrained encoder, first-token pooling
func ParseModel(id string) (Backend, string, error) {
	id = strings.TrimSpace(id)
	switch {
	case id == "" || id == string(BackendTFIDF):
		return BackendTFIDF, "", nil
	case strings.HasPrefix(id, "openai:"):
		return BackendOpenAI, strings.TrimPrefix(id, "openai:"), nil
	case strings.HasPrefix(id, "text-embedding-"):
		return BackendOpenAI, id, nil
	case strings.HasPrefix(id, "encoder:"):
		if name := strings.TrimPrefix(id, "encoder:"); name != "" {
			return BackendEncoder, name, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", domain.ErrUnknownBackend, id)
}

// New creates the embedder selected by cfg.Model.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	backend, model, err := ParseModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendOpenAI:
		oc := openai.Config{Model: model}
		if cfg.OpenAI != nil {
			oc.BaseURL = cfg.OpenAI.BaseURL
			oc.APIKeyEnv = cfg.OpenAI.APIKeyEnv
			oc.BatchSize = cfg.OpenAI.BatchSize
			oc.RequestsPerSecond = cfg.OpenAI.RequestsPerSecond
		}
		c, err := openai.NewClient(oc)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendEncoder:
		if cfg.Encoder == nil {
			return nil, errors.New("encoder embedder config missing")
		}
		c, err := encoder.NewClient(encoder.Config{
			URL:       cfg.Encoder.URL,
			Model:     model,
			APIKeyEnv: cfg.Encoder.APIKeyEnv,
			Timeout:   time.Duration(cfg.Encoder.TimeoutSecs) * time.Second,
			BatchSize: cfg.Encoder.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return tfidf.NewEmbedder(), nil
	}
}
