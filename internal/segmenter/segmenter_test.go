package segmenter

import (
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSegment_FootnotesAbbreviationsAndArtifacts(t *testing.T) {
	text := "Dr. Smith3 found results. The data shows growth.\n\n(cid:12)"

	got := New().Segment(text)

	assert.Equal(t, []string{"Smith found results.", "The data shows growth."}, got)
}

func TestSegment_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty input", "", nil},
		{"whitespace only", "  \n\n \t", nil},
		{"no letters", "12 34. 56? 78", nil},
		{"dotted abbreviation", "U.S. policy changed. Growth followed.", []string{"U.S. policy changed.", "Growth followed."}},
		{"capital initial", "J. Smith wrote it. Then it sold.", []string{"J. Smith wrote it.", "Then it sold."}},
		{"question mark", "Why does it fail? Nobody knows.", []string{"Why does it fail?", "Nobody knows."}},
		{"paragraph break", "First heading\n\nSecond Part here", []string{"First heading", "Second Part here"}},
		{"leading junk", "** 42 The model converges.", []string{"The model converges."}},
		{"embedded newline", "The model\nconverges quickly.", []string{"The model converges quickly."}},
		{"no uppercase dropped", "lowercase only here. Next one.", []string{"Next one."}},
		{"footnote at sentence end", "Costs rose sharply12. Prices followed.", []string{"Costs rose sharply.", "Prices followed."}},
		{"digits inside tokens kept", "The H2O sample boiled.", []string{"The H2O sample boiled."}},
	}
	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Segment(tt.in))
		})
	}
}

func TestSegment_Deterministic(t *testing.T) {
	text := "Intro3 text. Sec. 2 describes it.\n\nMore e.g. here? Yes. (cid:3) Done."
	s := New()
	first := s.Segment(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, New().Segment(text))
	}
}

func TestSegment_OutputsStartUppercase(t *testing.T) {
	inputs := []string{
		"12. abc Def. ghi. (cid:1) Jkl mno.",
		"§ 3 Results are shown. — and then. ¶ The End",
		"a. b. c. D",
		"Über alles gilt. äh. Öl fließt.",
	}
	s := New()
	for _, in := range inputs {
		for _, out := range s.Segment(in) {
			r, _ := utf8.DecodeRuneInString(out)
			assert.Truef(t, unicode.IsLetter(r) && unicode.IsUpper(r), "%q does not start uppercase", out)
		}
	}
}

func TestParagraphs_ContainTheirCandidates(t *testing.T) {
	text := "Dr. Smith3 found\nresults. The data shows growth.\n\n\nThe model predicts decline."

	paras := Paragraphs(text)
	assert.Equal(t, []string{
		"Dr. Smith found results. The data shows growth.",
		"The model predicts decline.",
	}, paras)

	for _, cand := range New().Segment(text) {
		assert.Contains(t, paras[0]+paras[1], cand)
	}
	assert.Equal(t, []string{""}, Paragraphs(""))
}
