package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bib = `@article{a, title = {Growth}, year = {2020}, abstract = {The data shows growth.}}
@article{b, title = {Decline}, year = {2021}, abstract = {The data shows decline.}}
@misc{c, title = {No Abstract}}
`

var lexicon = map[string]string{"the": "DET", "data": "NOUN", "shows": "VERB", "growth": "NOUN", "decline": "NOUN"}

func taggerServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		type token struct {
			Text  string `json:"text"`
			POS   string `json:"pos"`
			Lemma string `json:"lemma"`
		}
		var tokens []token
		for _, f := range strings.Fields(req.Text) {
			f = strings.Trim(f, ".")
			pos, ok := lexicon[strings.ToLower(f)]
			if !ok {
				pos = "X"
			}
			tokens = append(tokens, token{Text: f, POS: pos, Lemma: strings.ToLower(f)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tokens": tokens})
	}))
}

func writeConfig(t *testing.T, taggerURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.bib"), []byte(bib), 0o644))
	data := filepath.Join(dir, "data")
	cfg := fmt.Sprintf(`library:
  path: %s
  source: abstract
data:
  path: %s
tagger:
  url: "%s"
embedder:
  model: tfidf
corpus:
  granularity: fulltext
  require_noun_verb: true
pipeline:
  workers: 2
`, filepath.Join(dir, "library.bib"), data, taggerURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, data
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath, verbose, serializeRefresh, embedOverwrite = "", false, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bibsent version dev\n", out)
}

func TestEmbedWithoutOverwriteTouchesNothing(t *testing.T) {
	cfg, data := writeConfig(t, "http://127.0.0.1:1")

	out, err := run(t, "embed", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing done")
	_, statErr := os.Stat(data)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSerializeDeserializeEmbed(t *testing.T) {
	srv := taggerServer(t)
	defer srv.Close()
	cfg, data := writeConfig(t, srv.URL)

	out, err := run(t, "serialize", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries: 0 already cached, 3 recorded (1 invalid), 0 to retry")

	out, err = run(t, "serialize", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 already cached, 0 recorded")

	out, err = run(t, "deserialize", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 loaded (1 invalid), 0 not serialized, 0 unreadable; 2 valid sentences")

	out, err = run(t, "embed", "--config", cfg, "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, out, "2 vectors from tfidf")

	matches, err := filepath.Glob(filepath.Join(data, "embeddings", "*.gob"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	_, err = os.Stat(filepath.Join(data, "vocabulary.db"))
	assert.NoError(t, err)
}

func TestCachedCommandsRunWithoutTagger(t *testing.T) {
	srv := taggerServer(t)
	defer srv.Close()
	cfg, _ := writeConfig(t, srv.URL)

	_, err := run(t, "serialize", "--config", cfg)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Replace(string(raw), srv.URL, "", 1)), 0o644))

	out, err := run(t, "deserialize", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 loaded (1 invalid)")

	out, err = run(t, "embed", "--config", cfg, "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, out, "2 vectors from tfidf")

	_, err = run(t, "serialize", "--config", cfg)
	assert.Error(t, err)
}
