package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	write := func(name string, mtime time.Time) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		return path
	}
	stale := write("old.mp3", old)
	partial := write("old.mp3.part", old)
	fresh := write("new.mp3", time.Now())
	other := write("notes.txt", old)

	n, err := SweepStale(dir, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, partial)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestSweepStale_MissingDir(t *testing.T) {
	n, err := SweepStale(filepath.Join(t.TempDir(), "nope"), time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
