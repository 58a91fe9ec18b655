package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"card.png", "notes.txt", "setup.exe", ".cache/old.png", "sub/list.vcf"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	explicit := filepath.Join(root, "setup.exe")

	files, err := collectFiles([]string{root, explicit}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "card.png"),
		filepath.Join(root, "notes.txt"),
		filepath.Join(root, "sub", "list.vcf"),
		explicit,
	}, files)

	files, err = collectFiles([]string{root}, false)
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join(root, ".cache", "old.png"))

	_, err = collectFiles([]string{filepath.Join(root, "missing")}, true)
	assert.Error(t, err)
}
