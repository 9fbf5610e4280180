package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/pkg/apierror"
)

func newDirectoryService(env *testEnv) *DirectoryService {
	return NewDirectoryService(env.disk, env.activity, nil)
}

func TestDirectoryList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dirs := newDirectoryService(env)
	ctx := context.Background()

	env.mustMkdirAll(t, "zebra")
	env.mustMkdirAll(t, "alpha")
	env.mustWriteFile(t, "file10.txt", "1234567890")
	env.mustWriteFile(t, "file2.txt", "12")

	t.Run("directories first then natural name order", func(t *testing.T) {
		data, meta, err := dirs.List(ctx, "/", 1, 100, "", "")
		require.NoError(t, err)
		require.Equal(t, 4, meta.Total)

		names := make([]string, 0, len(data.Items))
		for _, item := range data.Items {
			names = append(names, item.Name)
		}
		require.Equal(t, []string{"alpha", "zebra", "file2.txt", "file10.txt"}, names)
	})

	t.Run("breadcrumbs and parent for nested path", func(t *testing.T) {
		env.mustMkdirAll(t, "alpha/beta")

		data, _, err := dirs.List(ctx, "/alpha/beta", 1, 100, "", "")
		require.NoError(t, err)
		require.Equal(t, "/alpha/beta", data.CurrentPath)
		require.Equal(t, "/alpha", data.ParentPath)
		require.Len(t, data.Breadcrumbs, 3)
	})

	t.Run("sort by size descending", func(t *testing.T) {
		data, _, err := dirs.List(ctx, "/", 1, 100, "size", "desc")
		require.NoError(t, err)
		// Directories still lead regardless of the sort field.
		require.Equal(t, "directory", data.Items[0].Type)
		require.Equal(t, "file10.txt", data.Items[2].Name)
	})

	t.Run("pagination slices the listing", func(t *testing.T) {
		data, meta, err := dirs.List(ctx, "/", 2, 3, "", "")
		require.NoError(t, err)
		require.Len(t, data.Items, 1)
		require.Equal(t, 2, meta.TotalPages)
	})

	t.Run("file path is not listable", func(t *testing.T) {
		_, _, err := dirs.List(ctx, "/file2.txt", 1, 100, "", "")
		require.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := dirs.List(ctx, "/nope", 1, 100, "", "")
		require.True(t, apierror.IsCode(err, apierror.CodeNotFound))
	})
}

func TestDirectoryCreateFolder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dirs := newDirectoryService(env)
	ctx := context.Background()

	t.Run("creates under the root", func(t *testing.T) {
		data, err := dirs.CreateFolder(ctx, "/", "reports", env.actor)
		require.NoError(t, err)
		require.Equal(t, "/reports", data.Path)
		require.Equal(t, "directory", data.Type)
	})

	t.Run("existing folder is a conflict", func(t *testing.T) {
		_, err := dirs.CreateFolder(ctx, "/", "reports", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeConflict))
	})

	t.Run("missing parent is reported not created", func(t *testing.T) {
		_, err := dirs.CreateFolder(ctx, "/a/b/c", "d", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeNotFound))
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := dirs.CreateFolder(ctx, "/", "..", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeValidation))
	})
}

func TestDirectoryTree(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dirs := newDirectoryService(env)
	ctx := context.Background()

	env.mustMkdirAll(t, "a/a1/a2")
	env.mustMkdirAll(t, "b")
	env.mustWriteFile(t, "a/file.txt", "content")

	t.Run("depth one lists only direct directories", func(t *testing.T) {
		data, err := dirs.Tree(ctx, "/", 1)
		require.NoError(t, err)
		require.Len(t, data.Nodes, 2)
		require.Equal(t, "a", data.Nodes[0].Name)
		require.True(t, data.Nodes[0].HasChildren)
		require.False(t, data.Nodes[1].HasChildren)
		require.Nil(t, data.Nodes[0].Children)
	})

	t.Run("deeper levels expand recursively", func(t *testing.T) {
		data, err := dirs.Tree(ctx, "/", 3)
		require.NoError(t, err)
		require.Len(t, data.Nodes[0].Children, 1)
		require.Equal(t, "/a/a1", data.Nodes[0].Children[0].Path)
		require.Len(t, data.Nodes[0].Children[0].Children, 1)
	})
}

func TestDirectoryStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dirs := newDirectoryService(env)
	ctx := context.Background()

	env.mustMkdirAll(t, "docs")
	env.mustWriteFile(t, "docs/a.txt", "12345")
	env.mustWriteFile(t, "b.txt", "123")

	stats := dirs.Stats(ctx, 77)
	require.Equal(t, 2, stats.FileCount)
	require.Equal(t, 1, stats.DirCount)
	require.Equal(t, int64(8), stats.UsedBytes)
	require.Equal(t, int64(77), stats.TrashBytes)
}
