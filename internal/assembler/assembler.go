// Package assembler turns one bibliography entry into a processed Document:
// extraction, then segmentation, then validation.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bibsent/internal/domain"
	"bibsent/internal/logger"
)

// Segmenter splits raw text into candidate sentences.
type Segmenter interface {
	Segment(text string) []string
}

// Validator classifies one candidate sentence.
type Validator interface {
	Validate(ctx context.Context, candidate string) (domain.Sentence, error)
}

// Assembler builds Documents from entries.
type Assembler struct {
	basePath  string
	extractor domain.Extractor
	segmenter Segmenter
	validator Validator
	lemmas    domain.LemmaSink
	abstracts bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLemmaSink records the lemmas of every tagged token.
func WithLemmaSink(sink domain.LemmaSink) Option {
	return func(a *Assembler) { a.lemmas = sink }
}

// WithAbstractSource takes each document's text from its entry's abstract
// instead of extracting it from the referenced PDF.
func WithAbstractSource() Option {
	return func(a *Assembler) { a.abstracts = true }
}

// New creates an Assembler resolving file references under basePath.
func New(basePath string, extractor domain.Extractor, segmenter Segmenter, validator Validator, opts ...Option) *Assembler {
	a := &Assembler{
		basePath:  basePath,
		extractor: extractor,
		segmenter: segmenter,
		validator: validator,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BasePath returns the storage root file references are resolved against.
func (a *Assembler) BasePath() string { return a.basePath }

// Final reports whether err describes a settled outcome for a document
// (missing metadata, failed or empty extraction). Such documents are kept,
// marked invalid, and need not be processed again.
func Final(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrMissingMetadata) ||
		errors.Is(err, domain.ErrExtractionFailed) ||
		errors.Is(err, domain.ErrEmptyText)
}

// Assemble processes entry. It always returns a Document; a non-nil error
// explains why the document is invalid or incomplete. Use Final to tell
// settled outcomes from interrupted ones (cancellation, tagger failure).
func (a *Assembler) Assemble(ctx context.Context, entry domain.Entry) (*domain.Document, error) {
	doc := domain.NewDocument(entry, a.basePath)
	if strings.TrimSpace(entry.Title) == "" {
		return doc, fmt.Errorf("%w: entry %q has no title", domain.ErrMissingMetadata, entry.Key)
	}

	if file, ok := ResolveFile(entry.File, a.basePath); ok {
		doc.File = file
	}

	var text string
	if a.abstracts {
		if strings.TrimSpace(entry.Abstract) == "" {
			return doc, fmt.Errorf("%w: %q has no abstract", domain.ErrMissingMetadata, entry.Title)
		}
		text = entry.Abstract
	} else {
		var err error
		if text, err = a.extract(ctx, doc); err != nil {
			return doc, err
		}
	}
	doc.RawText = &text
	if strings.TrimSpace(text) == "" {
		return doc, fmt.Errorf("%w: %q", domain.ErrEmptyText, entry.Title)
	}
	doc.IsValid = true

	doc.RawSentences = a.segmenter.Segment(text)
	if doc.RawSentences == nil {
		doc.RawSentences = []string{}
	}
	doc.Sentences = []domain.Sentence{}
	var tokens []domain.Token
	for _, cand := range doc.RawSentences {
		if err := ctx.Err(); err != nil {
			return doc, err
		}
		s, err := a.validator.Validate(ctx, cand)
		if err != nil {
			return doc, fmt.Errorf("validate %q: %w", entry.Title, err)
		}
		tokens = append(tokens, s.Tokens...)
		if s.IsValid {
			doc.Sentences = append(doc.Sentences, s)
		}
	}

	if a.lemmas != nil {
		if err := a.lemmas.Put(ctx, tokens); err != nil {
			return doc, fmt.Errorf("record lemmas for %q: %w", entry.Title, err)
		}
	}
	if len(doc.Sentences) == 0 {
		logger.Warn("%q: no valid sentences in %d candidates", entry.Title, len(doc.RawSentences))
	}
	return doc, nil
}

func (a *Assembler) extract(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.File == "" {
		return "", fmt.Errorf("%w: %q has no pdf file reference", domain.ErrMissingMetadata, doc.Title)
	}
	path := filepath.Join(a.basePath, doc.File)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrMissingMetadata, path, err)
	}
	text, err := a.extractor.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, domain.ErrExtractionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, path, err)
	}
	return text, nil
}

// ResolveFile derives the storage-relative path of an entry's PDF from its raw
// file field. Reference managers export fields like
// "Full Text:/root/storage/AB12/paper.pdf:application/pdf", possibly several
// separated by ';'. The storage root prefix and the ':' locator suffix are
// stripped; the first reference ending in ".pdf" wins.
func ResolveFile(field, basePath string) (string, bool) {
	for _, ref := range strings.Split(field, ";") {
		rest := ref
		if basePath != "" {
			i := strings.Index(ref, basePath)
			if i < 0 {
				continue
			}
			rest = strings.TrimLeft(ref[i+len(basePath):], `/\`)
		}
		if j := strings.Index(rest, ":"); j >= 0 {
			rest = rest[:j]
		}
		rest = strings.TrimSpace(rest)
		if strings.HasSuffix(strings.ToLower(rest), ".pdf") {
			return rest, true
		}
	}
	return "", false
}
