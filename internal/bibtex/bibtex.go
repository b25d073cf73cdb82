// Package bibtex reads bibliography entries from BibTeX files.
package bibtex

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nickng/bibtex"

	"bibsent/internal/domain"
)

// Load parses the BibTeX file at path.
func Load(path string) ([]domain.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bibliography: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads entries in file order. Field names are matched case-insensitively
// and brace groups are removed from values.
func Parse(r io.Reader) ([]domain.Entry, error) {
	bib, err := bibtex.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bibliography: %w", err)
	}
	entries := make([]domain.Entry, 0, len(bib.Entries))
	for _, be := range bib.Entries {
		fields := make(map[string]string, len(be.Fields))
		for k, v := range be.Fields {
			if v == nil {
				continue
			}
			fields[strings.ToLower(k)] = clean(v.String())
		}
		entries = append(entries, domain.Entry{
			Key:      be.CiteName,
			Title:    fields["title"],
			Abstract: fields["abstract"],
			Year:     fields["year"],
			File:     fields["file"],
		})
	}
	return entries, nil
}

var braces = strings.NewReplacer("{", "", "}", "")

func clean(s string) string {
	return strings.Join(strings.Fields(braces.Replace(s)), " ")
}
