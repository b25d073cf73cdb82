// Package service wires the library, the document cache and the embedding
// store into the operations exposed by the CLI and the browser.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"bibsent/internal/corpus"
	"bibsent/internal/domain"
	"bibsent/internal/embedding"
	"bibsent/internal/library"
	"bibsent/internal/logger"
	"bibsent/internal/summarizer"
	"bibsent/internal/vectorstore"
	"bibsent/internal/vectorstore/memory"
)

// EmbedderFactory creates the configured embedding backend.
type EmbedderFactory func() (domain.Embedder, error)

// Options configure a Pipeline.
type Options struct {
	// BatchKey names the embedding batch of this library configuration.
	BatchKey            string
	Granularity         corpus.Granularity
	NewEmbedder         EmbedderFactory
	SummaryMaxSentences int
}

// Pipeline is the application service over one library.
type Pipeline struct {
	lib        *library.Library
	builder    *corpus.Builder
	store      *embedding.Store
	opts       Options
	summarizer *summarizer.FrequencySummarizer

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	index   *memory.Storage
}

// New creates a pipeline.
func New(lib *library.Library, builder *corpus.Builder, store *embedding.Store, stop corpus.Stopwords, opts Options) *Pipeline {
	if opts.SummaryMaxSentences <= 0 {
		opts.SummaryMaxSentences = 3
	}
	if opts.Granularity == "" {
		opts.Granularity = corpus.Fulltext
	}
	return &Pipeline{
		lib:        lib,
		builder:    builder,
		store:      store,
		opts:       opts,
		summarizer: summarizer.NewFrequencySummarizer(stop),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Library returns the underlying library.
func (p *Pipeline) Library() *library.Library { return p.lib }

// Documents returns the loaded documents in bibliography order.
func (p *Pipeline) Documents() []*domain.Document { return p.lib.Documents() }

// Serialize processes every entry not yet cached. With refresh, every entry
// is forgotten first and processed again.
func (p *Pipeline) Serialize(ctx context.Context, refresh bool) (library.Stats, error) {
	if refresh {
		if err := p.lib.Refresh(); err != nil {
			return library.Stats{}, fmt.Errorf("refresh: %w", err)
		}
	}
	stats, err := p.lib.Serialize(ctx)
	logger.Info("serialize: %d entries, %d cached, %d recorded (%d invalid), %d failed",
		stats.Entries, stats.Cached, stats.Recorded, stats.Invalid, stats.Failed)
	return stats, err
}

// Deserialize loads every cached document of the library.
func (p *Pipeline) Deserialize(ctx context.Context) (library.Stats, error) {
	stats, err := p.lib.Deserialize(ctx)
	logger.Info("deserialize: %d entries, %d loaded (%d invalid), %d not serialized, %d unreadable",
		stats.Entries, stats.Cached, stats.Invalid, stats.Missing, stats.Failed)
	return stats, err
}

// Embed builds the corpus of the valid loaded documents, embeds it in one
// batch and saves the batch. Unless overwrite is set it does nothing and
// returns domain.ErrOverwriteGuard.
func (p *Pipeline) Embed(ctx context.Context, overwrite bool) (*embedding.Batch, error) {
	if !overwrite {
		return nil, fmt.Errorf("%w: embeddings for %s left as they are", domain.ErrOverwriteGuard, p.opts.BatchKey)
	}
	if p.opts.NewEmbedder == nil {
		return nil, errors.New("no embedding backend configured")
	}
	emb, err := p.opts.NewEmbedder()
	if err != nil {
		return nil, err
	}

	docs := p.lib.Valid()
	if len(docs) == 0 {
		return nil, errors.New("no valid documents loaded")
	}
	c, err := p.builder.Build(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}
	if c.Len() == 0 {
		return nil, errors.New("corpus is empty after filtering")
	}

	runID := p.newRunID()
	logger.Info("embedding run %s: %d texts from %d documents with %s", runID, c.Len(), len(docs), emb.Name())
	if err := emb.Prepare(c.Text); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", emb.Name(), err)
	}
	vectors, err := emb.EmbedBatch(ctx, c.Text)
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", emb.Name(), err)
	}

	batch := &embedding.Batch{
		RunID:       runID,
		Model:       emb.Name(),
		Granularity: string(p.opts.Granularity),
		CreatedAt:   time.Now().UTC(),
		Title:       c.Title,
		Text:        c.Text,
		Year:        c.Year,
		Embeddings:  vectors,
	}
	if err := p.store.Save(p.opts.BatchKey, batch, true); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.index = nil
	p.mu.Unlock()
	logger.Info("embedding run %s saved to %s (dim %d)", runID, p.store.Path(p.opts.BatchKey), emb.Dimension())
	return batch, nil
}

func (p *Pipeline) newRunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}

// Embeddings loads the saved batch of this library configuration.
func (p *Pipeline) Embeddings() (*embedding.Batch, error) {
	return p.store.Load(p.opts.BatchKey)
}

// Summary returns the most representative valid sentences of the document.
func (p *Pipeline) Summary(title string) []string {
	doc, ok := p.lib.Document(title)
	if !ok {
		return nil
	}
	return p.summarizer.Summarize(doc.Texts(), p.opts.SummaryMaxSentences)
}

// Similar returns up to k documents whose embeddings are closest to those of
// the document titled title.
func (p *Pipeline) Similar(title string, k int) ([]vectorstore.Result, error) {
	idx, err := p.loadIndex()
	if err != nil {
		return nil, err
	}
	vec, ok := idx.Vector(title)
	if !ok {
		return nil, fmt.Errorf("%q has no embedding", title)
	}
	all, err := idx.Search(vec, idx.Len())
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{title: {}}
	var out []vectorstore.Result
	for _, r := range all {
		if _, dup := seen[r.Title]; dup {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (p *Pipeline) loadIndex() (*memory.Storage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index != nil {
		return p.index, nil
	}
	batch, err := p.store.Load(p.opts.BatchKey)
	if err != nil {
		return nil, err
	}
	if batch.Len() == 0 {
		return nil, errors.New("embedding batch is empty")
	}
	idx := memory.NewStorage()
	if err := idx.Init(len(batch.Embeddings[0])); err != nil {
		return nil, err
	}
	records := make([]vectorstore.Record, batch.Len())
	for i := range records {
		records[i] = vectorstore.Record{Text: batch.Text[i], Year: batch.Year[i]}
		if i < len(batch.Title) {
			records[i].Title = batch.Title[i]
		}
	}
	if err := idx.Upsert(records, batch.Embeddings); err != nil {
		return nil, err
	}
	p.index = idx
	return idx, nil
}
