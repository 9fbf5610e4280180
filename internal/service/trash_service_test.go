package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
)

func TestTrashSoftDeleteAndRestore(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustMkdirAll(t, "docs")
	env.mustWriteFile(t, "docs/a.txt", "payload")

	record, err := env.trash.SoftDelete(ctx, "/docs/a.txt", env.actor)
	require.NoError(t, err)
	require.Equal(t, "/docs/a.txt", record.OriginalPath)
	require.Equal(t, "file", record.OriginalKind)
	require.Equal(t, int64(7), record.SizeBytes)

	_, statErr := env.disk.Stat("/docs/a.txt")
	require.Error(t, statErr, "soft-deleted file must leave the managed tree")

	restored, err := env.trash.Restore(ctx, record.ID, env.actor)
	require.NoError(t, err)
	require.Equal(t, record.ID, restored.ID)

	info, err := env.disk.Stat("/docs/a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(7), info.Size())

	_, err = env.trash.Restore(ctx, record.ID, env.actor)
	require.ErrorIs(t, err, model.ErrTrashItemNotFound, "restore consumes the record")
}

func TestTrashRestoreConflictWhenPathOccupied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustWriteFile(t, "a.txt", "original")

	record, err := env.trash.SoftDelete(ctx, "/a.txt", env.actor)
	require.NoError(t, err)

	// A new file takes the original path before the restore.
	env.mustWriteFile(t, "a.txt", "newcomer")

	_, err = env.trash.Restore(ctx, record.ID, env.actor)
	require.ErrorIs(t, err, model.ErrPathConflict)

	// The trashed payload is untouched and still restorable after the
	// path is freed again.
	require.NoError(t, env.disk.RemoveAll("/a.txt"))
	restored, err := env.trash.Restore(ctx, record.ID, env.actor)
	require.NoError(t, err)
	require.Equal(t, "/a.txt", restored.OriginalPath)
}

func TestTrashSoftDeleteDirectory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustMkdirAll(t, "project/sub")
	env.mustWriteFile(t, "project/readme.md", "hello")
	env.mustWriteFile(t, "project/sub/data.bin", "xxxx")

	record, err := env.trash.SoftDelete(ctx, "/project", env.actor)
	require.NoError(t, err)
	require.Equal(t, "directory", record.OriginalKind)
	require.Equal(t, int64(9), record.SizeBytes)

	restored, err := env.trash.Restore(ctx, record.ID, env.actor)
	require.NoError(t, err)
	require.Equal(t, "/project", restored.OriginalPath)

	info, err := env.disk.Stat("/project/sub/data.bin")
	require.NoError(t, err)
	require.Equal(t, int64(4), info.Size())
}

func TestTrashPurgeAndEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustWriteFile(t, "one.txt", "1")
	env.mustWriteFile(t, "two.txt", "2")

	first, err := env.trash.SoftDelete(ctx, "/one.txt", env.actor)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(ctx, "/two.txt", env.actor)
	require.NoError(t, err)

	require.NoError(t, env.trash.Purge(ctx, first.ID, env.actor))
	require.ErrorIs(t, env.trash.Purge(ctx, first.ID, env.actor), model.ErrTrashItemNotFound)

	count, err := env.trash.Empty(ctx, env.actor)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	records, err := env.trash.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTrashCleanupKeepsItemsInsideRetention(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustWriteFile(t, "old.txt", "old")
	env.mustWriteFile(t, "fresh.txt", "fresh")

	oldRecord, err := env.trash.SoftDelete(ctx, "/old.txt", env.actor)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(ctx, "/fresh.txt", env.actor)
	require.NoError(t, err)

	// Backdate one record past the retention window.
	oldRecord.DeletedAt = time.Now().UTC().AddDate(0, 0, -31).Format(time.RFC3339Nano)
	require.NoError(t, env.trashStore.Create(ctx, oldRecord))

	data, err := env.trash.Cleanup(ctx, 30, env.actor)
	require.NoError(t, err)
	require.Equal(t, 1, data.DeletedCount)
	require.Equal(t, 1, data.RemainingCount)

	_, err = env.trash.Cleanup(ctx, 0, env.actor)
	require.Error(t, err, "non-positive retention is rejected")
}

func TestTrashCleanupRetentionBoundary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustWriteFile(t, "inside.txt", "in")
	env.mustWriteFile(t, "outside.txt", "out")

	inside, err := env.trash.SoftDelete(ctx, "/inside.txt", env.actor)
	require.NoError(t, err)
	outside, err := env.trash.SoftDelete(ctx, "/outside.txt", env.actor)
	require.NoError(t, err)

	// One record sits just inside the 30-day window, one just past it.
	// The cutoff is computed at call time, so a minute of margin keeps
	// the comparison unambiguous.
	now := time.Now().UTC()
	inside.DeletedAt = now.AddDate(0, 0, -30).Add(time.Minute).Format(time.RFC3339Nano)
	require.NoError(t, env.trashStore.Create(ctx, inside))
	outside.DeletedAt = now.AddDate(0, 0, -30).Add(-time.Minute).Format(time.RFC3339Nano)
	require.NoError(t, env.trashStore.Create(ctx, outside))

	data, err := env.trash.Cleanup(ctx, 30, env.actor)
	require.NoError(t, err)
	require.Equal(t, 1, data.DeletedCount)
	require.Equal(t, 1, data.RemainingCount)

	records, err := env.trash.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, inside.ID, records[0].ID)
}

func TestTrashBytes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.mustWriteFile(t, "a.txt", "12345")

	require.Equal(t, int64(0), env.trash.TrashBytes(ctx))

	_, err := env.trash.SoftDelete(ctx, "/a.txt", env.actor)
	require.NoError(t, err)

	require.Equal(t, int64(5), env.trash.TrashBytes(ctx))
}
