package validator

import (
	"context"
	"fmt"
	"regexp"

	"bibsent/internal/domain"
)

// citationArtifact matches the marker PDF extractors leave for unresolved glyphs.
var citationArtifact = regexp.MustCompile(`\(cid:\d{1,4}\)`)

// Validator classifies candidate sentences using a part-of-speech tagger.
type Validator struct {
	tagger domain.Tagger
}

// New creates a Validator that tags candidates with tagger.
func New(tagger domain.Tagger) *Validator {
	return &Validator{tagger: tagger}
}

// Validate tags candidate and decides whether it is a sentence worth keeping:
// it needs a NOUN, a VERB or AUX, and no citation artifact. The candidate text
// is never altered.
func (v *Validator) Validate(ctx context.Context, candidate string) (domain.Sentence, error) {
	tagged, err := v.tagger.Tag(ctx, candidate)
	if err != nil {
		return domain.Sentence{}, fmt.Errorf("tag sentence: %w", err)
	}
	tokens := make([]domain.Token, len(tagged))
	for i, t := range tagged {
		tokens[i] = domain.Token{Text: t.Text, POS: t.POS, Lemma: t.Lemma}
	}
	inv := domain.NewInventory(tokens)
	return domain.Sentence{
		Text:      candidate,
		Tokens:    tokens,
		Inventory: inv,
		IsValid:   IsValid(inv, candidate),
	}, nil
}

// IsValid applies the decision rule to an inventory and its source text.
func IsValid(inv domain.Inventory, text string) bool {
	return inv.HasNounVerb() && !HasCitationArtifact(text)
}

// HasCitationArtifact reports whether text contains a "(cid:N)" marker.
func HasCitationArtifact(text string) bool {
	return citationArtifact.MatchString(text)
}
