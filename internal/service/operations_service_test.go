package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/pkg/apierror"
)

func newOperationsService(env *testEnv) *OperationsService {
	return NewOperationsService(env.disk, env.trash, env.activity, nil)
}

func TestOperationsRename(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ops := newOperationsService(env)
	ctx := context.Background()
	env.mustWriteFile(t, "draft.txt", "text")
	env.mustWriteFile(t, "taken.txt", "other")

	t.Run("renames in place", func(t *testing.T) {
		result, err := ops.Rename(ctx, "/draft.txt", "final.txt", env.actor)
		require.NoError(t, err)
		require.Equal(t, "/draft.txt", result.OldPath)
		require.Equal(t, "/final.txt", result.NewPath)

		_, err = env.disk.Stat("/final.txt")
		require.NoError(t, err)
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		result, err := ops.Rename(ctx, "/final.txt", "final.txt", env.actor)
		require.NoError(t, err)
		require.Equal(t, result.OldPath, result.NewPath)
	})

	t.Run("occupied target is a conflict", func(t *testing.T) {
		_, err := ops.Rename(ctx, "/final.txt", "taken.txt", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeConflict))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := ops.Rename(ctx, "/nope.txt", "other.txt", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeNotFound))
	})

	t.Run("root cannot be renamed", func(t *testing.T) {
		_, err := ops.Rename(ctx, "/", "storage", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})

	t.Run("separator in new name is rejected", func(t *testing.T) {
		_, err := ops.Rename(ctx, "/final.txt", "a/b.txt", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeValidation))
	})
}

func TestOperationsMove(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ops := newOperationsService(env)
	ctx := context.Background()
	env.mustMkdirAll(t, "inbox")
	env.mustMkdirAll(t, "outbox")
	env.mustWriteFile(t, "inbox/a.txt", "a")
	env.mustWriteFile(t, "inbox/b.txt", "b")

	t.Run("moves a batch", func(t *testing.T) {
		result, err := ops.Move(ctx, []string{"/inbox/a.txt", "/inbox/b.txt"}, "/outbox", "", env.actor)
		require.NoError(t, err)
		require.Len(t, result.Moved, 2)
		require.Empty(t, result.Failed)

		_, statErr := env.disk.Stat("/outbox/a.txt")
		require.NoError(t, statErr)
	})

	t.Run("missing destination fails the whole call", func(t *testing.T) {
		_, err := ops.Move(ctx, []string{"/outbox/a.txt"}, "/nowhere", "", env.actor)
		require.True(t, apierror.IsCode(err, apierror.CodeNotFound))
	})

	t.Run("per-item failures do not abort the batch", func(t *testing.T) {
		result, err := ops.Move(ctx, []string{"/outbox/a.txt", "/ghost.txt"}, "/inbox", "", env.actor)
		require.NoError(t, err)
		require.Len(t, result.Moved, 1)
		require.Len(t, result.Failed, 1)
		require.Equal(t, "/ghost.txt", result.Failed[0].From)
	})

	t.Run("directory cannot move into its own subtree", func(t *testing.T) {
		env.mustMkdirAll(t, "parent/child")

		result, err := ops.Move(ctx, []string{"/parent"}, "/parent/child", "", env.actor)
		require.NoError(t, err)
		require.Empty(t, result.Moved)
		require.Len(t, result.Failed, 1)
		require.Contains(t, result.Failed[0].Reason, "subtree")
	})

	t.Run("sibling with shared prefix is fine", func(t *testing.T) {
		env.mustMkdirAll(t, "docs")
		env.mustMkdirAll(t, "docs-archive")

		result, err := ops.Move(ctx, []string{"/docs"}, "/docs-archive", "", env.actor)
		require.NoError(t, err)
		require.Len(t, result.Moved, 1)
	})

	t.Run("occupied target fails the item by default", func(t *testing.T) {
		env.mustMkdirAll(t, "left")
		env.mustMkdirAll(t, "right")
		env.mustWriteFile(t, "left/same.txt", "from left")
		env.mustWriteFile(t, "right/same.txt", "already here")

		result, err := ops.Move(ctx, []string{"/left/same.txt"}, "/right", "", env.actor)
		require.NoError(t, err)
		require.Empty(t, result.Moved)
		require.Len(t, result.Failed, 1)
		require.Contains(t, result.Failed[0].Reason, "already exists")

		content, readErr := readAll(env.disk, "/right/same.txt")
		require.NoError(t, readErr)
		require.Equal(t, "already here", content)
	})

	t.Run("rename policy resolves the collision with a numbered suffix", func(t *testing.T) {
		result, err := ops.Move(ctx, []string{"/left/same.txt"}, "/right", "rename", env.actor)
		require.NoError(t, err)
		require.Len(t, result.Moved, 1)
		require.Equal(t, "/right/same (1).txt", result.Moved[0].To)
	})

	t.Run("skip policy reports the collision", func(t *testing.T) {
		env.mustWriteFile(t, "left/same.txt", "again")

		result, err := ops.Move(ctx, []string{"/left/same.txt"}, "/right", "skip", env.actor)
		require.NoError(t, err)
		require.Empty(t, result.Moved)
		require.Len(t, result.Failed, 1)
	})
}

func TestOperationsDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ops := newOperationsService(env)
	ctx := context.Background()
	env.mustWriteFile(t, "keep.txt", "keep")
	env.mustWriteFile(t, "drop.txt", "drop")

	result, err := ops.Delete(ctx, []string{"/drop.txt", "/missing.txt"}, env.actor)
	require.NoError(t, err)
	require.Len(t, result.Deleted, 1)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "/drop.txt", result.Deleted[0].OriginalPath)

	records, err := env.trash.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	t.Run("root is refused per item", func(t *testing.T) {
		result, err := ops.Delete(ctx, []string{"/"}, env.actor)
		require.NoError(t, err)
		require.Empty(t, result.Deleted)
		require.Len(t, result.Failed, 1)
	})
}

func TestIsDescendantPath(t *testing.T) {
	t.Parallel()

	require.True(t, isDescendantPath("/a", "/a/b"))
	require.True(t, isDescendantPath("/a/b", "/a/b/c/d"))
	require.False(t, isDescendantPath("/a", "/a"))
	require.False(t, isDescendantPath("/a", "/ab"))
	require.False(t, isDescendantPath("/a/b", "/a"))
	require.True(t, isDescendantPath("/", "/anything"))
}
