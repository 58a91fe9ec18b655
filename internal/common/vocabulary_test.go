package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

func TestVocabularyCanonicalize(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		in   string
		want constants.Category
		ok   bool
	}{
		{"Exporter", constants.Exporter, true},
		{"exports", constants.Exporter, true},
		{"  high commission ", constants.HighCommissioner, true},
		{"others", constants.Others, true},
		{"space tourism", constants.Others, false},
		{"", constants.Others, false},
	}
	for _, tt := range tests {
		got, ok := v.Canonicalize(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestVocabularyInfer(t *testing.T) {
	v := DefaultVocabulary()

	got, ok := v.Infer("Acme Exports", "Export Manager")
	assert.True(t, ok)
	assert.Equal(t, constants.Exporter, got)

	got, ok = v.Infer("British Deputy High Commission")
	assert.True(t, ok)
	assert.Equal(t, constants.DeputyHighCommissioner, got)

	// "import" must not fire inside "important"
	got, ok = v.Infer("Important Things Ltd")
	assert.False(t, ok)
	assert.Equal(t, constants.Others, got)
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	body := `
keywords:
  - category: Logistics
    keywords: [haulage]
synonyms:
  hauliers: Logistics
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, constants.Others, v.Fallback)
	assert.Len(t, v.Categories, len(constants.AllCategories()))

	got, ok := v.Infer("Northern Haulage")
	assert.True(t, ok)
	assert.Equal(t, constants.Logistics, got)

	got, ok = v.Canonicalize("Hauliers")
	assert.True(t, ok)
	assert.Equal(t, constants.Logistics, got)
}

func TestLoadVocabularyRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - category: Pirates\n    keywords: [ship]\n"), 0o600))

	_, err := LoadVocabulary(path)
	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
}
