package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	f := filepath.Join(tmpDir, "model.txt")
	require.NoError(t, os.WriteFile(f, []byte("title: x"), 0o600))

	files, err := CollectFiles([]string{f}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
}

func TestCollectFiles_DirectoryRecursive(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	for _, name := range []string{"a.json", "b.yml", "c.toml", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.yaml"), []byte("x"), 0o600))

	top, err := CollectFiles([]string{tmpDir}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "a.json"),
		filepath.Join(tmpDir, "b.yml"),
		filepath.Join(tmpDir, "c.toml"),
	}, top)

	all, err := CollectFiles([]string{tmpDir}, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Contains(t, all, filepath.Join(subDir, "nested.yaml"))
}

func TestCollectFiles_NonExistent(t *testing.T) {
	_, err := CollectFiles([]string{"/nonexistent/path"}, false)
	assert.ErrorContains(t, err, "cannot access")
}
