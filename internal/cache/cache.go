// Package cache stores processed documents content-addressed by the
// fingerprint of their title, with a separate index for fast "already done"
// checks.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bibsent/internal/domain"
)

// Cache maps fingerprints to document artifacts on disk.
type Cache struct {
	dir   string
	index *Index
}

// Open opens the cache rooted at dir with its index at indexPath.
func Open(dir, indexPath string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	idx, err := OpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, index: idx}, nil
}

// Has reports whether fp has been recorded.
func (c *Cache) Has(fp string) bool { return c.index.Has(fp) }

// AllFingerprints returns every recorded fingerprint.
func (c *Cache) AllFingerprints() map[string]struct{} {
	fps := c.index.Fingerprints()
	out := make(map[string]struct{}, len(fps))
	for _, fp := range fps {
		out[fp] = struct{}{}
	}
	return out
}

// Len returns the number of recorded fingerprints.
func (c *Cache) Len() int { return c.index.Len() }

// ArtifactPath returns where the artifact of fp is stored.
func (c *Cache) ArtifactPath(fp string) string {
	return filepath.Join(c.dir, fp+".json")
}

// Record writes the artifact of doc, then indexes fp. The index never points
// at an artifact that was not durably written.
func (c *Cache) Record(ctx context.Context, fp string, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", fp, err)
	}
	if err := writeFileAtomic(c.ArtifactPath(fp), data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", fp, err)
	}
	return c.index.Put(fp, doc.Title)
}

// Load reads the artifact of fp. An indexed fingerprint without an artifact
// yields domain.ErrCacheInconsistency.
func (c *Cache) Load(fp string) (*domain.Document, error) {
	data, err := os.ReadFile(c.ArtifactPath(fp))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifact %s missing", domain.ErrCacheInconsistency, fp)
		}
		return nil, fmt.Errorf("read artifact %s: %w", fp, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: artifact %s unreadable: %v", domain.ErrCacheInconsistency, fp, err)
	}
	return &doc, nil
}

// Forget removes fp from the index so the next run processes it again.
// The artifact is left on disk and overwritten by the next Record.
func (c *Cache) Forget(fp string) error {
	return c.index.Remove(fp)
}
