package embedding

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibsent/internal/config"
	"bibsent/internal/domain"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		id      string
		backend Backend
		model   string
	}{
		{"", BackendTFIDF, ""},
		{"tfidf", BackendTFIDF, ""},
		{"openai:text-embedding-3-large", BackendOpenAI, "text-embedding-3-large"},
		{"text-embedding-3-small", BackendOpenAI, "text-embedding-3-small"},
		{"encoder:allenai/scibert", BackendEncoder, "allenai/scibert"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			backend, model, err := ParseModel(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, backend)
			assert.Equal(t, tt.model, model)
		})
	}

	for _, id := range []string{"word2vec", "encoder:", "bert-base"} {
		_, _, err := ParseModel(id)
		assert.ErrorIs(t, err, domain.ErrUnknownBackend, id)
	}
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbedderConfig{Model: "tfidf"})
	require.NoError(t, err)
	assert.Equal(t, "tfidf", e.Name())

	_, err = New(config.EmbedderConfig{Model: "glove"})
	assert.ErrorIs(t, err, domain.ErrUnknownBackend)

	_, err = New(config.EmbedderConfig{Model: "encoder:bert"})
	assert.Error(t, err)

	e, err = New(config.EmbedderConfig{
		Model:   "encoder:bert",
		Encoder: &config.EncoderEmbedderConfig{URL: "http://localhost:9000/embed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "encoder:bert", e.Name())
}

func sampleBatch() *Batch {
	return &Batch{
		RunID:       "01J0000000000000000000000",
		Model:       "tfidf",
		Granularity: "fulltext",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Title:       []string{"A", "B"},
		Text:        []string{"data show", "model grow"},
		Year:        []string{"2020", ""},
		Embeddings:  [][]float64{{1, 0}, {0, 1}},
	}
}

func TestStore_SaveRequiresOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "embeddings")
	s := NewStore(dir)

	err := s.Save("k", sampleBatch(), false)
	assert.ErrorIs(t, err, domain.ErrOverwriteGuard)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
	assert.False(t, s.Exists("k"))
}

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	want := sampleBatch()
	require.NoError(t, s.Save("k", want, true))
	assert.True(t, s.Exists("k"))

	got, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, want.Year, got.Year)
	assert.Equal(t, want.Embeddings, got.Embeddings)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 2, got.Len())

	next := sampleBatch()
	next.RunID = "second"
	require.NoError(t, s.Save("k", next, true))
	got, err = s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "second", got.RunID)
}

func TestStore_LoadMissing(t *testing.T) {
	_, err := NewStore(t.TempDir()).Load("absent")
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}

func TestStore_RejectsRaggedBatch(t *testing.T) {
	b := sampleBatch()
	b.Year = b.Year[:1]
	assert.Error(t, NewStore(t.TempDir()).Save("k", b, true))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "library_pdf_fulltext_openai-text-embedding-3-small",
		Key("/home/me/library.bib", "pdf", "fulltext", "openai:text-embedding-3-small"))
	for _, library := range []string{"", ".", "/", "./"} {
		assert.Equal(t, "default_abstract_sentence_tfidf", Key(library, "abstract", "sentence", "tfidf"), library)
	}
	assert.Equal(t, "my.refs_pdf_paragraph_tfidf", Key("my.refs.bib", "pdf", "paragraph", "tfidf"))
}
