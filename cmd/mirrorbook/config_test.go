package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirrorbook.yaml")

	require.NoError(t, writeDefaultConfig(path, false))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestWriteDefaultConfigKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirrorbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index_url: https://example.com/\n"), 0644))

	assert.Error(t, writeDefaultConfig(path, false))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "index_url: https://example.com/\n", string(content))

	require.NoError(t, writeDefaultConfig(path, true))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().IndexURL, cfg.IndexURL)
}
