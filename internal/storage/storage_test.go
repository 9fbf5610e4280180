package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskWriteAtomic(t *testing.T) {
	t.Parallel()

	disk, err := New(t.TempDir())
	require.NoError(t, err)

	t.Run("writes content and reports size", func(t *testing.T) {
		written, writeErr := disk.WriteAtomic("notes.txt", strings.NewReader("hello world"), 0o644)
		require.NoError(t, writeErr)
		require.Equal(t, int64(11), written)

		content, readErr := os.ReadFile(filepath.Join(disk.RootAbs(), "notes.txt"))
		require.NoError(t, readErr)
		require.Equal(t, "hello world", string(content))
	})

	t.Run("overwrite replaces content in one step", func(t *testing.T) {
		_, writeErr := disk.WriteAtomic("notes.txt", strings.NewReader("v2"), 0o644)
		require.NoError(t, writeErr)

		content, readErr := os.ReadFile(filepath.Join(disk.RootAbs(), "notes.txt"))
		require.NoError(t, readErr)
		require.Equal(t, "v2", string(content))
	})

	t.Run("failed write leaves no partial file", func(t *testing.T) {
		_, writeErr := disk.WriteAtomic("partial.bin", failingReader{}, 0o644)
		require.Error(t, writeErr)

		_, statErr := os.Stat(filepath.Join(disk.RootAbs(), "partial.bin"))
		require.True(t, os.IsNotExist(statErr))

		entries, readErr := os.ReadDir(disk.RootAbs())
		require.NoError(t, readErr)
		for _, entry := range entries {
			require.False(t, strings.HasPrefix(entry.Name(), ".upload-"), "orphaned temp file %s", entry.Name())
		}
	})

	t.Run("traversal target is refused before touching disk", func(t *testing.T) {
		_, writeErr := disk.WriteAtomic("../outside.txt", strings.NewReader("x"), 0o644)
		require.Error(t, writeErr)
	})
}

func TestDiskMkdirRequiresParent(t *testing.T) {
	t.Parallel()

	disk, err := New(t.TempDir())
	require.NoError(t, err)

	mkdirErr := disk.Mkdir("missing/child", 0o755)
	require.Error(t, mkdirErr)
	require.True(t, os.IsNotExist(mkdirErr))

	require.NoError(t, disk.Mkdir("existing", 0o755))
	require.NoError(t, disk.Mkdir("existing/child", 0o755))
}

func TestDiskRename(t *testing.T) {
	t.Parallel()

	disk, err := New(t.TempDir())
	require.NoError(t, err)

	_, writeErr := disk.WriteAtomic("a.txt", strings.NewReader("content"), 0o644)
	require.NoError(t, writeErr)

	require.NoError(t, disk.Rename("a.txt", "b.txt"))

	_, statErr := disk.Stat("a.txt")
	require.Error(t, statErr)

	info, statErr := disk.Stat("b.txt")
	require.NoError(t, statErr)
	require.Equal(t, int64(7), info.Size())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}
