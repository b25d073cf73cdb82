package embedding

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bibsent/internal/domain"
)

// Batch is one embedding run over a whole corpus, stored as parallel arrays.
type Batch struct {
	RunID       string
	Model       string
	Granularity string
	CreatedAt   time.Time

	Title      []string
	Text       []string
	Year       []string
	Embeddings [][]float64
}

// Len returns the number of rows.
func (b *Batch) Len() int { return len(b.Text) }

func (b *Batch) check() error {
	n := len(b.Text)
	if len(b.Year) != n || len(b.Embeddings) != n || (b.Title != nil && len(b.Title) != n) {
		return fmt.Errorf("batch arrays differ in length: text=%d year=%d embeddings=%d title=%d",
			n, len(b.Year), len(b.Embeddings), len(b.Title))
	}
	return nil
}

// Store keeps one batch file per key under a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. Nothing is touched on disk until Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key names the batch of one library, text source, granularity and model.
func Key(library, source, granularity, model string) string {
	parts := []string{
		strings.TrimSuffix(filepath.Base(library), filepath.Ext(library)),
		source, granularity, model,
	}
	for i, p := range parts {
		p = unsafeKeyChars.ReplaceAllString(p, "-")
		if p = strings.Trim(p, "-."); p == "" {
			p = "default"
		}
		parts[i] = p
	}
	return strings.Join(parts, "_")
}

// Path returns the batch file of key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".gob")
}

// Exists reports whether a batch has been saved under key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Save writes b under key. Without overwrite nothing is written and the
// result is domain.ErrOverwriteGuard.
func (s *Store) Save(key string, b *Batch, overwrite bool) error {
	if !overwrite {
		return fmt.Errorf("%w: batch %s not saved", domain.ErrOverwriteGuard, key)
	}
	if err := b.check(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create embeddings dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encode batch %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path(key))
}

// Load reads the batch saved under key, or domain.ErrBatchNotFound.
func (s *Store) Load(key string) (*Batch, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, key)
		}
		return nil, err
	}
	defer f.Close()
	var b Batch
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", key, err)
	}
	if err := b.check(); err != nil {
		return nil, fmt.Errorf("batch %s: %w", key, err)
	}
	return &b, nil
}
