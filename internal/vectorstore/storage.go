// Package vectorstore searches embedding vectors by similarity.
package vectorstore

// Record identifies the corpus row a vector was computed from.
type Record struct {
	Title string
	Text  string
	Year  string
}

// Result is a record with its similarity to the query vector.
type Result struct {
	Record
	Score float64
}

// Storage persists vectors and supports similarity search.
type Storage interface {
	Init(dimension int) error
	Upsert(records []Record, vectors [][]float64) error
	Search(vector []float64, topK int) ([]Result, error)
	Clear() error
}
