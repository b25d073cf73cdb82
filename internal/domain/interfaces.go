package domain

import "context"

// Entry is one bibliographic record. Title is the natural key for the whole
// pipeline; the remaining fields are opaque metadata.
type Entry struct {
	Key      string
	Title    string
	Abstract string
	Year     string
	File     string
}

// TaggedToken is one token as returned by a Tagger.
type TaggedToken struct {
	Text  string
	POS   string
	Lemma string
}

// Tagger assigns a grammatical category (and a lemma) to each token of a text.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]TaggedToken, error)
}

// Extractor returns the raw text of a source file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Embedder converts a batch of texts into fixed-width vectors, one per text.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// LemmaSink receives the lemmas observed while tagging so they can be
// looked up later without re-running the tagger.
type LemmaSink interface {
	Put(ctx context.Context, tokens []Token) error
}

// LemmaSource resolves the lemma of a (surface, category) pair.
type LemmaSource interface {
	Lemma(ctx context.Context, text, pos string) (string, bool, error)
}
