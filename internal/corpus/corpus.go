// Package corpus turns validated documents into the lemma-filtered texts fed
// to an embedding backend.
package corpus

import (
	"context"
	"fmt"
	"strings"

	"bibsent/internal/domain"
	"bibsent/internal/logger"
	"bibsent/internal/segmenter"
)

// Granularity selects what one corpus text covers.
type Granularity string

const (
	Fulltext  Granularity = "fulltext"
	Sentence  Granularity = "sentence"
	Paragraph Granularity = "paragraph"
)

// ParseGranularity validates a configured granularity. Fulltext builds one
// text per document, Sentence one per valid sentence and Paragraph one per
// blank-line-separated block of the raw text that holds valid sentences.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "", Fulltext:
		return Fulltext, nil
	case Sentence:
		return Sentence, nil
	case Paragraph:
		return Paragraph, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Options control corpus construction.
type Options struct {
	Granularity     Granularity
	RequireNounVerb bool
}

// Corpus holds parallel arrays of texts and the title and year of the
// document each text came from.
type Corpus struct {
	Title []string
	Text  []string
	Year  []string
}

// Len returns the number of texts.
func (c *Corpus) Len() int { return len(c.Text) }

var contentCategories = map[string]bool{
	domain.POSNoun: true,
	domain.POSVerb: true,
	domain.POSAdj:  true,
	domain.POSAdv:  true,
}

// lemmaOverrides pins lemmas the tagger gets wrong for academic text.
var lemmaOverrides = map[string]string{
	"data": "data",
}

// Builder resolves lemmas and filters stopwords.
type Builder struct {
	stop   Stopwords
	lemmas domain.LemmaSource
	opts   Options
}

// NewBuilder creates a corpus builder. lemmas may be nil, in which case the
// lowercased surface form stands in for tokens without a known lemma.
func NewBuilder(stop Stopwords, lemmas domain.LemmaSource, opts Options) *Builder {
	if stop == nil {
		stop = Stopwords{}
	}
	if opts.Granularity == "" {
		opts.Granularity = Fulltext
	}
	return &Builder{stop: stop, lemmas: lemmas, opts: opts}
}

// Build produces the corpus of docs. Invalid documents are skipped, and with
// RequireNounVerb so are documents whose tokens taken together lack a noun
// and a verb. Texts that end up empty after filtering are dropped.
func (b *Builder) Build(ctx context.Context, docs []*domain.Document) (*Corpus, error) {
	c := &Corpus{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !doc.IsValid {
			continue
		}
		if b.opts.RequireNounVerb && !domain.NewInventory(doc.Tokens()).HasNounVerb() {
			logger.Debug("corpus: %q has no noun/verb pattern", doc.Title)
			continue
		}
		switch b.opts.Granularity {
		case Sentence:
			for _, s := range doc.Sentences {
				text, err := b.join(ctx, s.Tokens)
				if err != nil {
					return nil, err
				}
				c.add(doc, text)
			}
		case Paragraph:
			for _, group := range paragraphs(doc) {
				var tokens []domain.Token
				for _, s := range group {
					tokens = append(tokens, s.Tokens...)
				}
				text, err := b.join(ctx, tokens)
				if err != nil {
					return nil, err
				}
				c.add(doc, text)
			}
		default:
			text, err := b.join(ctx, doc.Tokens())
			if err != nil {
				return nil, err
			}
			c.add(doc, text)
		}
	}
	return c, nil
}

// paragraphs groups the valid sentences of doc by the raw text paragraph they
// were segmented from. Sentences are matched in order, so a sentence never
// moves back to an earlier paragraph; one that matches no later paragraph
// stays with the current one. Without raw text all sentences form one group.
func paragraphs(doc *domain.Document) [][]domain.Sentence {
	if len(doc.Sentences) == 0 {
		return nil
	}
	var blocks []string
	if doc.RawText != nil {
		blocks = segmenter.Paragraphs(*doc.RawText)
	}
	var groups [][]domain.Sentence
	cur, last := 0, -1
	for _, s := range doc.Sentences {
		for j := cur; j < len(blocks); j++ {
			if strings.Contains(blocks[j], s.Text) {
				cur = j
				break
			}
		}
		if cur != last {
			groups = append(groups, nil)
			last = cur
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], s)
	}
	return groups
}

func (c *Corpus) add(doc *domain.Document, text string) {
	if text == "" {
		return
	}
	c.Title = append(c.Title, doc.Title)
	c.Text = append(c.Text, text)
	c.Year = append(c.Year, doc.Entry.Year)
}

func (b *Builder) join(ctx context.Context, tokens []domain.Token) (string, error) {
	var parts []string
	for _, t := range tokens {
		if !contentCategories[t.POS] {
			continue
		}
		lemma, err := b.lemma(ctx, t)
		if err != nil {
			return "", err
		}
		if lemma == "" || b.stop.Contains(lemma) {
			continue
		}
		parts = append(parts, lemma)
	}
	return strings.Join(parts, " "), nil
}

func (b *Builder) lemma(ctx context.Context, t domain.Token) (string, error) {
	if l, ok := lemmaOverrides[strings.ToLower(t.Text)]; ok {
		return l, nil
	}
	if t.Lemma != "" {
		return strings.ToLower(t.Lemma), nil
	}
	if b.lemmas != nil {
		l, ok, err := b.lemmas.Lemma(ctx, t.Text, t.POS)
		if err != nil {
			return "", fmt.Errorf("lemma of %q: %w", t.Text, err)
		}
		if ok {
			return strings.ToLower(l), nil
		}
	}
	return strings.ToLower(t.Text), nil
}
