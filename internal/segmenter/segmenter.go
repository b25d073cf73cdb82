package segmenter

import (
	"regexp"
	"strings"
	"unicode"
)

// Segmenter splits raw extracted text into candidate sentences.
// It is a heuristic: abbreviations with longer prefixes ("et al.") still split.
type Segmenter struct {
	footnote     *regexp.Regexp
	leadingAbbrv *regexp.Regexp
}

// New creates a Segmenter.
func New() *Segmenter {
	return &Segmenter{
		footnote:     footnoteMark,
		leadingAbbrv: regexp.MustCompile(`^[A-Z][a-z]\.\s+([A-Z])`),
	}
}

// Segment returns the ordered candidate sentences of text. Every candidate
// starts with an uppercase letter. The result depends only on text.
func (s *Segmenter) Segment(text string) []string {
	var out []string
	for _, raw := range split(text) {
		if !hasLetter(raw) {
			continue
		}
		cand := s.footnote.ReplaceAllString(raw, "${1}")
		cand, ok := s.cropToUpper(cand)
		if !ok {
			continue
		}
		cand = strings.ReplaceAll(cand, "\n", " ")
		cand = strings.TrimRightFunc(cand, unicode.IsSpace)
		if cand == "" {
			continue
		}
		out = append(out, cand)
	}
	return out
}

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	footnoteMark   = regexp.MustCompile(`([A-Za-z])\d+\b`)
)

// Paragraphs splits text at runs of blank lines. Each paragraph is normalized
// the way Segment normalizes candidates (footnote marks dropped, newlines
// turned into spaces), so every candidate Segment returns is a substring of
// the paragraph it came from.
func Paragraphs(text string) []string {
	blocks := paragraphBreak.Split(text, -1)
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = footnoteMark.ReplaceAllString(b, "${1}")
		out = append(out, strings.ReplaceAll(b, "\n", " "))
	}
	return out
}

// cropToUpper discards everything before the first uppercase letter, then any
// two-letter title abbreviation ("Dr.") that kept the sentence from splitting.
func (s *Segmenter) cropToUpper(cand string) (string, bool) {
	i := strings.IndexFunc(cand, func(r rune) bool {
		return unicode.IsLetter(r) && unicode.IsUpper(r)
	})
	if i < 0 {
		return "", false
	}
	cand = cand[i:]
	for {
		m := s.leadingAbbrv.FindStringSubmatchIndex(cand)
		if m == nil {
			return cand, true
		}
		cand = cand[m[2]:]
	}
}

// split cuts text after '.' or '?' followed by one whitespace character, or at
// runs of two or more newlines. Sentence ends that look like abbreviations
// ("U.S.", "Dr.", "J.") do not split.
func split(text string) []string {
	rs := []rune(text)
	var parts []string
	start := 0
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) && i > 0 && (rs[i-1] == '.' || rs[i-1] == '?') && !abbreviationBefore(rs, i) {
			parts = append(parts, string(rs[start:i]))
			i++
			start = i
			continue
		}
		if rs[i] == '\n' && i+1 < len(rs) && rs[i+1] == '\n' {
			parts = append(parts, string(rs[start:i]))
			for i < len(rs) && rs[i] == '\n' {
				i++
			}
			start = i
			continue
		}
		i++
	}
	parts = append(parts, string(rs[start:]))
	return parts
}

// abbreviationBefore reports whether the text ending at i is an abbreviation:
// "x.y." style, a capitalized two-letter form like "Dr.", or a capital initial.
func abbreviationBefore(rs []rune, i int) bool {
	if i >= 4 && isWord(rs[i-4]) && rs[i-3] == '.' && isWord(rs[i-2]) {
		return true
	}
	if i >= 3 && isUpper(rs[i-3]) && isLower(rs[i-2]) && rs[i-1] == '.' {
		return true
	}
	if i >= 2 && isUpper(rs[i-2]) && rs[i-1] == '.' && (i == 2 || !unicode.IsLetter(rs[i-3])) {
		return true
	}
	return false
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
