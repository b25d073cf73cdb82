package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibsent/internal/domain"
)

func openTemp(t *testing.T) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "docs"), filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	return c, dir
}

func sampleDocument(n int) *domain.Document {
	raw := "raw text"
	doc := &domain.Document{
		BasePath:     "/storage/",
		Title:        "A Study of Growth",
		File:         "AB12/paper.pdf",
		IsValid:      true,
		RawText:      &raw,
		RawSentences: []string{},
		Sentences:    []domain.Sentence{},
	}
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("Sentence %d shows data.", i)
		tokens := []domain.Token{
			{Text: "Sentence", POS: "NOUN"}, {Text: fmt.Sprint(i), POS: "NUM"},
			{Text: "shows", POS: "VERB"}, {Text: "data", POS: "NOUN"},
		}
		doc.RawSentences = append(doc.RawSentences, text)
		doc.Sentences = append(doc.Sentences, domain.Sentence{
			Text: text, Tokens: tokens, Inventory: domain.NewInventory(tokens), IsValid: true,
		})
	}
	return doc
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Fingerprint("abc"))
	assert.Equal(t, Fingerprint("same title"), Fingerprint("same title"))
	assert.NotEqual(t, Fingerprint("title a"), Fingerprint("title b"))
}

func TestCache_RecordLoadRoundTrip(t *testing.T) {
	c, _ := openTemp(t)
	doc := sampleDocument(12)
	fp := Fingerprint(doc.Title)

	require.NoError(t, c.Record(context.Background(), fp, doc))
	assert.True(t, c.Has(fp))

	got, err := c.Load(fp)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.IsValid, got.IsValid)
	assert.Equal(t, *doc.RawText, *got.RawText)
	assert.Equal(t, doc.RawSentences, got.RawSentences)
	require.Len(t, got.Sentences, 12)
	for i := range doc.Sentences {
		assert.Equal(t, doc.Sentences[i].Text, got.Sentences[i].Text)
		assert.Equal(t, doc.Sentences[i].Inventory, got.Sentences[i].Inventory)
		assert.Equal(t, doc.Sentences[i].IsValid, got.Sentences[i].IsValid)
		assert.Len(t, got.Sentences[i].Tokens, 4)
	}
}

func TestCache_ArtifactLayout(t *testing.T) {
	c, _ := openTemp(t)
	doc := sampleDocument(1)
	fp := Fingerprint(doc.Title)
	require.NoError(t, c.Record(context.Background(), fp, doc))

	data, err := os.ReadFile(c.ArtifactPath(fp))
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"base_path", "title", "file", "is_valid", "raw_text", "raw_sentences", "sentences"} {
		assert.Contains(t, raw, key)
	}

	var sentences map[string]struct {
		Text      string         `json:"text"`
		Tokens    [][]string     `json:"tokens"`
		Inventory map[string]int `json:"inventory"`
		IsValid   bool           `json:"is_valid"`
	}
	require.NoError(t, json.Unmarshal(raw["sentences"], &sentences))
	require.Contains(t, sentences, "0")
	assert.Equal(t, []string{"shows", "VERB"}, sentences["0"].Tokens[2])
	assert.Equal(t, 2, sentences["0"].Inventory["NOUN"])
}

func TestCache_RewriteIsByteIdentical(t *testing.T) {
	c, _ := openTemp(t)
	doc := sampleDocument(3)
	fp := Fingerprint(doc.Title)

	require.NoError(t, c.Record(context.Background(), fp, doc))
	first, err := os.ReadFile(c.ArtifactPath(fp))
	require.NoError(t, err)

	loaded, err := c.Load(fp)
	require.NoError(t, err)
	require.NoError(t, c.Record(context.Background(), fp, loaded))
	second, err := os.ReadFile(c.ArtifactPath(fp))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCache_IndexPersistsAcrossOpen(t *testing.T) {
	c, dir := openTemp(t)
	doc := sampleDocument(0)
	fp := Fingerprint(doc.Title)
	require.NoError(t, c.Record(context.Background(), fp, doc))

	reopened, err := Open(filepath.Join(dir, "docs"), filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	assert.True(t, reopened.Has(fp))
	assert.Equal(t, map[string]struct{}{fp: {}}, reopened.AllFingerprints())

	var index map[string]string
	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &index))
	assert.Equal(t, map[string]string{fp: doc.Title}, index)
}

func TestCache_MissingArtifactIsInconsistency(t *testing.T) {
	c, _ := openTemp(t)
	doc := sampleDocument(0)
	fp := Fingerprint(doc.Title)
	require.NoError(t, c.Record(context.Background(), fp, doc))
	require.NoError(t, os.Remove(c.ArtifactPath(fp)))

	_, err := c.Load(fp)
	assert.ErrorIs(t, err, domain.ErrCacheInconsistency)
}

func TestCache_Forget(t *testing.T) {
	c, _ := openTemp(t)
	doc := sampleDocument(0)
	fp := Fingerprint(doc.Title)
	require.NoError(t, c.Record(context.Background(), fp, doc))

	require.NoError(t, c.Forget(fp))
	assert.False(t, c.Has(fp))
	assert.NoError(t, c.Forget(fp))
}

func TestCache_RecordCancelled(t *testing.T) {
	c, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Record(ctx, "fp", sampleDocument(0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Has("fp"))
}

func TestCache_ConcurrentRecord(t *testing.T) {
	c, _ := openTemp(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := sampleDocument(1)
			doc.Title = fmt.Sprintf("title %d", i)
			assert.NoError(t, c.Record(context.Background(), Fingerprint(doc.Title), doc))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}

func TestOpenIndex_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenIndex(path)
	assert.Error(t, err)
}
