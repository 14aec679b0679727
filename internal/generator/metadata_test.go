package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeywordsParsesNonEmptyLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keywords-en.txt"), []byte("rocket\n\nspace\n"), 0o644))

	keywords := LoadKeywords(dir, "en")
	assert.Equal(t, []string{"rocket", "space"}, keywords)
}

func TestLoadKeywordsMissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, LoadKeywords(dir, "en"))
}

func TestKeywordsString(t *testing.T) {
	assert.Equal(t, "rocket, space", KeywordsString([]string{"rocket", "space"}))
	assert.Equal(t, "", KeywordsString(nil))
}
