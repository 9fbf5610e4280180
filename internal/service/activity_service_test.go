package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
	"go-file-manager/internal/repository"
	"go-file-manager/pkg/apierror"
)

type failingActivityStore struct {
	repository.ActivityStore
	appendErr error
}

func (s *failingActivityStore) Append(context.Context, model.ActivityEntry) error {
	return s.appendErr
}

func TestActivityLogIsBestEffort(t *testing.T) {
	t.Parallel()

	broken := &failingActivityStore{appendErr: errors.New("disk full")}
	activity := NewActivityService(broken)
	actor := model.Actor{IP: "192.0.2.1"}

	// The call must not panic, block, or surface the failure to the
	// operation that triggered it.
	activity.Log("upload", actor, "success", "/a.txt", "file", nil, "")

	select {
	case result := <-activity.Results():
		require.Equal(t, "upload", result.Action)
		require.EqualError(t, result.Err, "disk full")
	case <-time.After(time.Second):
		t.Fatal("expected a result on the channel")
	}
}

func TestActivityLogNilReceiver(t *testing.T) {
	t.Parallel()

	var activity *ActivityService
	activity.Log("noop", model.Actor{}, "success", "", "", nil, "")
}

func TestActivityQueryAndCleanup(t *testing.T) {
	t.Parallel()

	store := repository.NewActivityMemoryStore()
	activity := NewActivityService(store)
	actor := model.Actor{IP: "192.0.2.1"}
	ctx := context.Background()

	activity.Log("upload", actor, "success", "/a.txt", "file", nil, "")
	activity.Log("delete", actor, "failed", "/b.txt", "file", nil, "path not found")

	t.Run("query returns logged entries", func(t *testing.T) {
		items, meta, err := activity.Query(ctx, model.ActivityQuery{})
		require.NoError(t, err)
		require.Equal(t, 2, meta.Total)
		require.Len(t, items, 2)
	})

	t.Run("invalid range maps to bad request", func(t *testing.T) {
		_, _, err := activity.Query(ctx, model.ActivityQuery{From: "not-a-date"})
		require.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})

	t.Run("cleanup with fresh entries deletes nothing", func(t *testing.T) {
		data, err := activity.Cleanup(ctx, 30, actor)
		require.NoError(t, err)
		require.Equal(t, 0, data.DeletedCount)
		require.Equal(t, 2, data.RemainingCount)
	})

	t.Run("non-positive days", func(t *testing.T) {
		_, err := activity.Cleanup(ctx, 0, actor)
		require.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})
}

func TestActivityCleanupRetentionBoundary(t *testing.T) {
	t.Parallel()

	store := repository.NewActivityMemoryStore()
	activity := NewActivityService(store)
	actor := model.Actor{IP: "192.0.2.1"}
	ctx := context.Background()

	// The cutoff is computed at call time, so a minute of margin on each
	// side of the 30-day window keeps the comparison unambiguous.
	now := time.Now().UTC()
	inside := model.ActivityEntry{
		Action:     "upload",
		OccurredAt: now.AddDate(0, 0, -30).Add(time.Minute).Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     "success",
		TargetPath: "/kept.txt",
		TargetType: "file",
	}
	outside := model.ActivityEntry{
		Action:     "upload",
		OccurredAt: now.AddDate(0, 0, -30).Add(-time.Minute).Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     "success",
		TargetPath: "/purged.txt",
		TargetType: "file",
	}
	require.NoError(t, store.Append(ctx, inside))
	require.NoError(t, store.Append(ctx, outside))

	data, err := activity.Cleanup(ctx, 30, actor)
	require.NoError(t, err)
	require.Equal(t, 1, data.DeletedCount)
	require.Equal(t, 1, data.RemainingCount)

	items, _, err := activity.Query(ctx, model.ActivityQuery{Action: "upload"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "/kept.txt", items[0].TargetPath)
}
