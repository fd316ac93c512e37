package integrations

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadataTitleBlock(t *testing.T) {
	meta, err := ParseMetadata([]byte("% research!rsc\n% Russ Cox\n% 2026\n\nbody text\n"))
	require.NoError(t, err)

	assert.Equal(t, "research!rsc", meta.Title)
	assert.Equal(t, "Russ Cox", meta.Author)
}

func TestParseMetadataYAMLBlock(t *testing.T) {
	meta, err := ParseMetadata([]byte("---\ntitle: Offline Book\nauthor: Someone\nlang: de\n---\n"))
	require.NoError(t, err)

	assert.Equal(t, "Offline Book", meta.Title)
	assert.Equal(t, "Someone", meta.Author)
	assert.Equal(t, "de", meta.Language)
}

func TestParseMetadataEmpty(t *testing.T) {
	meta, err := ParseMetadata(nil)
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
}

func TestReadMetadataMissingFile(t *testing.T) {
	_, err := ReadMetadata(filepath.Join(t.TempDir(), "title.txt"))
	assert.Error(t, err)
}
