// Package library holds the entries of one bibliography and their processed
// documents, and drives the serialize/deserialize batch runs over them.
package library

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"bibsent/internal/assembler"
	"bibsent/internal/cache"
	"bibsent/internal/domain"
	"bibsent/internal/logger"
)

const defaultWorkers = 4

// Stats summarizes one batch run.
type Stats struct {
	Entries  int // entries considered
	Cached   int // already in the index, skipped
	Recorded int // assembled and written to the cache
	Invalid  int // recorded, but the document is invalid
	Failed   int // not recorded; retried on the next run
	Missing  int // deserialize: not in the index
}

// Library owns its entries and the documents derived from them.
type Library struct {
	entries   []domain.Entry
	assembler *assembler.Assembler
	cache     *cache.Cache
	workers   int

	mu   sync.RWMutex
	docs map[string]*domain.Document
}

// Option configures a Library.
type Option func(*Library)

// WithWorkers bounds how many entries are assembled concurrently.
func WithWorkers(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// New creates a library over entries. The assembler is only needed by Serialize.
func New(entries []domain.Entry, asm *assembler.Assembler, c *cache.Cache, opts ...Option) *Library {
	l := &Library{
		entries:   append([]domain.Entry(nil), entries...),
		assembler: asm,
		cache:     c,
		workers:   defaultWorkers,
		docs:      make(map[string]*domain.Document),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Entries returns the library's entries in bibliography order.
func (l *Library) Entries() []domain.Entry {
	return append([]domain.Entry(nil), l.entries...)
}

// Document returns the loaded document titled title.
func (l *Library) Document(title string) (*domain.Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.docs[title]
	return d, ok
}

// Documents returns the loaded documents in bibliography order.
func (l *Library) Documents() []*domain.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Document, 0, len(l.docs))
	seen := make(map[string]struct{}, len(l.docs))
	for _, e := range l.entries {
		if _, dup := seen[e.Title]; dup {
			continue
		}
		seen[e.Title] = struct{}{}
		if d, ok := l.docs[e.Title]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Valid returns the loaded documents that are valid, in bibliography order.
func (l *Library) Valid() []*domain.Document {
	var out []*domain.Document
	for _, d := range l.Documents() {
		if d.IsValid {
			out = append(out, d)
		}
	}
	return out
}

func (l *Library) attach(doc *domain.Document) {
	l.mu.Lock()
	l.docs[doc.Title] = doc
	l.mu.Unlock()
}

// Serialize assembles every entry whose fingerprint is not yet indexed and
// records the result. Per-document failures are logged and counted; only
// cancellation of ctx stops the run.
func (l *Library) Serialize(ctx context.Context) (Stats, error) {
	if l.assembler == nil {
		return Stats{}, errors.New("library has no assembler")
	}
	var (
		statsMu sync.Mutex
		stats   Stats
	)
	count := func(f func(*Stats)) {
		statsMu.Lock()
		f(&stats)
		statsMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	queued := make(map[string]struct{})
	for _, entry := range l.entries {
		if gctx.Err() != nil {
			break
		}
		count(func(s *Stats) { s.Entries++ })
		if strings.TrimSpace(entry.Title) == "" {
			logger.Warn("skipping entry %q: no title", entry.Key)
			count(func(s *Stats) { s.Failed++ })
			continue
		}
		fp := cache.Fingerprint(entry.Title)
		if l.cache.Has(fp) {
			count(func(s *Stats) { s.Cached++ })
			continue
		}
		if _, dup := queued[fp]; dup {
			logger.Warn("skipping entry %q: duplicate title %q", entry.Key, entry.Title)
			continue
		}
		queued[fp] = struct{}{}

		g.Go(func() error {
			doc, err := l.assembler.Assemble(gctx, entry)
			if !assembler.Final(err) {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("%q not recorded: %v", entry.Title, err)
				count(func(s *Stats) { s.Failed++ })
				return nil
			}
			if err != nil {
				logger.Info("%q invalid: %v", entry.Title, err)
			}
			if err := l.cache.Record(gctx, fp, doc); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error("record %q: %v", entry.Title, err)
				count(func(s *Stats) { s.Failed++ })
				return nil
			}
			l.attach(doc)
			count(func(s *Stats) {
				s.Recorded++
				if !doc.IsValid {
					s.Invalid++
				}
			})
			logger.Debug("recorded %q as %s", entry.Title, fp)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

// Deserialize loads the artifact of every indexed entry. Entries without an
// index hit, and index hits whose artifact is missing, are reported and skipped.
func (l *Library) Deserialize(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, entry := range l.entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Entries++
		fp := cache.Fingerprint(entry.Title)
		if !l.cache.Has(fp) {
			logger.Debug("%q not serialized yet", entry.Title)
			stats.Missing++
			continue
		}
		doc, err := l.cache.Load(fp)
		if err != nil {
			if errors.Is(err, domain.ErrCacheInconsistency) {
				logger.Warn("%q: %v", entry.Title, err)
			} else {
				logger.Error("load %q: %v", entry.Title, err)
			}
			stats.Failed++
			continue
		}
		doc.Entry = entry
		l.attach(doc)
		stats.Cached++
		if !doc.IsValid {
			stats.Invalid++
		}
	}
	return stats, nil
}

// Refresh forgets every entry of the library so the next Serialize processes
// them again.
func (l *Library) Refresh() error {
	for _, entry := range l.entries {
		if err := l.cache.Forget(cache.Fingerprint(entry.Title)); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.docs = make(map[string]*domain.Document)
	l.mu.Unlock()
	return nil
}
