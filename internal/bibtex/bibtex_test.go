package bibtex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `@article{smith2020,
  title = {A {Study} of Growth},
  author = {Smith, J.},
  year = {2020},
  abstract = {We study
    growth.},
  file = {Full Text PDF:/storage/AB12/paper.pdf:application/pdf}
}

@book{doe2019,
  title = {Metadata Only},
  year = {2019}
}
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "smith2020", entries[0].Key)
	assert.Equal(t, "A Study of Growth", entries[0].Title)
	assert.Equal(t, "2020", entries[0].Year)
	assert.Equal(t, "We study growth.", entries[0].Abstract)
	assert.Equal(t, "Full Text PDF:/storage/AB12/paper.pdf:application/pdf", entries[0].File)

	assert.Equal(t, "Metadata Only", entries[1].Title)
	assert.Empty(t, entries[1].File)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.bib")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.bib"))
	assert.Error(t, err)
}
