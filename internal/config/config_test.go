package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "tfidf", cfg.Embedder.Model)
	assert.Equal(t, "fulltext", cfg.Corpus.Granularity)
	assert.Equal(t, filepath.Join("data", "index.json"), cfg.Data.IndexPath)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoad_AppliesLocalsOverlay(t *testing.T) {
	dir := t.TempDir()
	base := `library:
  path: refs.bib
  storage: /srv/storage/
data:
  path: cache
embedder:
  model: text-embedding-3-small
  openai: {}
`
	locals := `library:
  storage: /home/me/Zotero/storage/
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalsFile), []byte(locals), 0o644))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "refs.bib", cfg.Library.Path)
	assert.Equal(t, "/home/me/Zotero/storage/", cfg.Library.Storage)
	assert.Equal(t, filepath.Join("cache", "index.json"), cfg.Data.IndexPath)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 64, cfg.Embedder.OpenAI.BatchSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Pipeline.Workers = 8
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Pipeline.Workers)
}
