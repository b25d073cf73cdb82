package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Index is the persisted fingerprint → title map that records which entries
// have a durable artifact. All writes go through one mutex.
type Index struct {
	mu      sync.RWMutex
	path    string
	entries map[string]string
}

// OpenIndex reads the index at path, starting empty when the file is absent.
func OpenIndex(path string) (*Index, error) {
	idx := &Index{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(data) == 0 {
		return idx, nil
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if idx.entries == nil {
		idx.entries = make(map[string]string)
	}
	return idx, nil
}

// Has reports whether fp is indexed.
func (i *Index) Has(fp string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.entries[fp]
	return ok
}

// Title returns the title recorded for fp.
func (i *Index) Title(fp string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.entries[fp]
	return t, ok
}

// Len returns the number of indexed fingerprints.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Fingerprints returns the indexed fingerprints in sorted order.
func (i *Index) Fingerprints() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, 0, len(i.entries))
	for fp := range i.entries {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// Put indexes fp and persists the index. The in-memory entry is rolled back
// when persisting fails.
func (i *Index) Put(fp, title string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev, had := i.entries[fp]
	i.entries[fp] = title
	if err := i.flushLocked(); err != nil {
		if had {
			i.entries[fp] = prev
		} else {
			delete(i.entries, fp)
		}
		return err
	}
	return nil
}

// Remove drops fp from the index and persists the index.
func (i *Index) Remove(fp string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	title, had := i.entries[fp]
	if !had {
		return nil
	}
	delete(i.entries, fp)
	if err := i.flushLocked(); err != nil {
		i.entries[fp] = title
		return err
	}
	return nil
}

func (i *Index) flushLocked() error {
	data, err := json.MarshalIndent(i.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := writeFileAtomic(i.path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
