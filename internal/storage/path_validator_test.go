package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/pkg/apierror"
)

func TestPathValidatorSanitize(t *testing.T) {
	t.Parallel()

	validator, err := NewPathValidator(t.TempDir())
	require.NoError(t, err)

	t.Run("root forms normalize to empty", func(t *testing.T) {
		for _, input := range []string{"", "/", "  /  ", "."} {
			rel, sanitizeErr := validator.Sanitize(input)
			require.NoError(t, sanitizeErr, "input %q", input)
			require.Equal(t, "", rel)
		}
	})

	t.Run("backslashes are normalized", func(t *testing.T) {
		rel, sanitizeErr := validator.Sanitize(`documents\photos\cat.jpg`)
		require.NoError(t, sanitizeErr)
		require.Equal(t, "documents/photos/cat.jpg", rel)
	})

	t.Run("dot-dot segment is rejected not stripped", func(t *testing.T) {
		_, sanitizeErr := validator.Sanitize("documents/../documents/report.txt")
		require.Error(t, sanitizeErr)
		require.True(t, apierror.IsCode(sanitizeErr, apierror.CodePathTraversal))
	})

	t.Run("double-encoded traversal is caught", func(t *testing.T) {
		_, sanitizeErr := validator.Sanitize("%2e%2e/secrets")
		require.Error(t, sanitizeErr)
		require.True(t, apierror.IsCode(sanitizeErr, apierror.CodePathTraversal))
	})

	t.Run("null bytes are rejected", func(t *testing.T) {
		_, sanitizeErr := validator.Sanitize("docs\x00/report.txt")
		require.Error(t, sanitizeErr)
	})

	t.Run("control characters are rejected", func(t *testing.T) {
		_, sanitizeErr := validator.Sanitize("docs\nreport.txt")
		require.Error(t, sanitizeErr)
	})

	t.Run("drive prefixes are rejected", func(t *testing.T) {
		_, sanitizeErr := validator.Sanitize(`C:\Windows\system32`)
		require.Error(t, sanitizeErr)
		require.True(t, apierror.IsCode(sanitizeErr, apierror.CodePathTraversal))
	})
}

func TestPathValidatorResolvePath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	validator, err := NewPathValidator(root)
	require.NoError(t, err)

	t.Run("root path resolves to root", func(t *testing.T) {
		resolved, resolveErr := validator.ResolvePath("/")
		require.NoError(t, resolveErr)
		require.Equal(t, validator.RootAbs(), resolved)
	})

	t.Run("missing target resolves through existing ancestor", func(t *testing.T) {
		resolved, resolveErr := validator.ResolvePath("/documents/new-file.txt")
		require.NoError(t, resolveErr)
		require.Equal(t, filepath.Join(validator.RootAbs(), "documents", "new-file.txt"), resolved)
	})

	t.Run("existing target resolves canonically", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(validator.RootAbs(), "music"), 0o755))

		resolved, resolveErr := validator.ResolvePath("music")
		require.NoError(t, resolveErr)
		require.Equal(t, filepath.Join(validator.RootAbs(), "music"), resolved)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		_, resolveErr := validator.ResolvePath("/documents/../../etc/passwd")
		require.Error(t, resolveErr)
		require.True(t, apierror.IsCode(resolveErr, apierror.CodePathTraversal))
	})

	t.Run("symlink escaping the root is rejected", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlink creation requires privileges on windows")
		}

		outside := t.TempDir()
		link := filepath.Join(validator.RootAbs(), "escape")
		require.NoError(t, os.Symlink(outside, link))

		_, resolveErr := validator.ResolvePath("escape")
		require.Error(t, resolveErr)
		require.True(t, apierror.IsCode(resolveErr, apierror.CodePathTraversal))
	})

	t.Run("within root check is separator aware", func(t *testing.T) {
		require.True(t, isWithinRoot("/srv/data", "/srv/data/docs/a.txt"))
		require.False(t, isWithinRoot("/srv/data", "/srv/database/a.txt"))
	})
}
