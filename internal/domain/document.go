package domain

import (
	"encoding/json"
	"errors"
	"sort"
)

// Grammatical categories the pipeline cares about.
const (
	POSNoun = "NOUN"
	POSVerb = "VERB"
	POSAux  = "AUX"
	POSAdj  = "ADJ"
	POSAdv  = "ADV"
)

// Token is a surface form with its grammatical category. The lemma is kept in
// memory only; artifacts store tokens as [text, category] pairs.
type Token struct {
	Text  string
	POS   string
	Lemma string
}

func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Text, t.POS})
}

func (t *Token) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.New("token must be a [text, category] pair")
	}
	t.Text, t.POS = pair[0], pair[1]
	return nil
}

// Inventory counts tokens per grammatical category.
type Inventory map[string]int

// NewInventory builds the inventory of a token list in a single pass.
func NewInventory(tokens []Token) Inventory {
	inv := make(Inventory)
	for _, t := range tokens {
		inv[t.POS]++
	}
	return inv
}

// Has reports whether at least one token of the category is present.
func (inv Inventory) Has(pos string) bool { return inv[pos] > 0 }

// HasNounVerb is the noun/verb rule: NOUN and (VERB or AUX).
func (inv Inventory) HasNounVerb() bool {
	return inv.Has(POSNoun) && (inv.Has(POSVerb) || inv.Has(POSAux))
}

// Sentence is one validated unit of segmented text.
type Sentence struct {
	Text      string
	Tokens    []Token
	Inventory Inventory
	IsValid   bool
}

type sentenceDetail struct {
	Text      string    `json:"text"`
	Tokens    []Token   `json:"tokens"`
	Inventory Inventory `json:"inventory"`
	IsValid   bool      `json:"is_valid"`
}

func (s Sentence) MarshalJSON() ([]byte, error) {
	tokens := s.Tokens
	if tokens == nil {
		tokens = []Token{}
	}
	return json.Marshal(sentenceDetail{
		Text:      s.Text,
		Tokens:    tokens,
		Inventory: NewInventory(tokens),
		IsValid:   s.IsValid,
	})
}

// UnmarshalJSON restores a sentence; the inventory is recomputed from the tokens.
func (s *Sentence) UnmarshalJSON(data []byte) error {
	var d sentenceDetail
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	s.Text = d.Text
	s.Tokens = d.Tokens
	s.Inventory = NewInventory(d.Tokens)
	s.IsValid = d.IsValid
	return nil
}

// Document is the processed representation of one Entry's source text.
type Document struct {
	Entry Entry

	BasePath     string
	Title        string
	File         string
	IsValid      bool
	RawText      *string
	RawSentences []string
	Sentences    []Sentence
}

// NewDocument starts a document for an entry. It is invalid until text is extracted.
func NewDocument(entry Entry, basePath string) *Document {
	return &Document{Entry: entry, BasePath: basePath, Title: entry.Title}
}

// Texts returns the text of every valid sentence in order.
func (d *Document) Texts() []string {
	out := make([]string, 0, len(d.Sentences))
	for _, s := range d.Sentences {
		out = append(out, s.Text)
	}
	return out
}

// Tokens returns all sentence tokens of the document in order.
func (d *Document) Tokens() []Token {
	var out []Token
	for _, s := range d.Sentences {
		out = append(out, s.Tokens...)
	}
	return out
}

type documentDetail struct {
	BasePath     string           `json:"base_path"`
	Title        string           `json:"title"`
	File         *string          `json:"file"`
	IsValid      bool             `json:"is_valid"`
	RawText      *string          `json:"raw_text"`
	RawSentences []string         `json:"raw_sentences"`
	Sentences    map[int]Sentence `json:"sentences"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	detail := documentDetail{
		BasePath:     d.BasePath,
		Title:        d.Title,
		IsValid:      d.IsValid,
		RawText:      d.RawText,
		RawSentences: d.RawSentences,
		Sentences:    make(map[int]Sentence, len(d.Sentences)),
	}
	if d.File != "" {
		f := d.File
		detail.File = &f
	}
	for i, s := range d.Sentences {
		detail.Sentences[i] = s
	}
	return json.Marshal(detail)
}

// UnmarshalJSON restores a document; sentences are ordered by their ordinal keys.
func (d *Document) UnmarshalJSON(data []byte) error {
	var detail documentDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return err
	}
	d.BasePath = detail.BasePath
	d.Title = detail.Title
	d.File = ""
	if detail.File != nil {
		d.File = *detail.File
	}
	d.IsValid = detail.IsValid
	d.RawText = detail.RawText
	d.RawSentences = detail.RawSentences

	keys := make([]int, 0, len(detail.Sentences))
	for k := range detail.Sentences {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	d.Sentences = make([]Sentence, 0, len(keys))
	for _, k := range keys {
		d.Sentences = append(d.Sentences, detail.Sentences[k])
	}
	return nil
}
