package repository

import (
	"context"
	"time"

	"go-file-manager/internal/model"
)

// ActivityStore persists the append-only activity log. Implementations must
// tolerate concurrent writers; mutations run under an exclusive lock with a
// bounded wait and fail with model.ErrLockTimeout on contention rather than
// corrupting the store.
type ActivityStore interface {
	Append(ctx context.Context, entry model.ActivityEntry) error
	Query(ctx context.Context, query model.ActivityQuery) ([]model.ActivityEntry, model.Meta, error)
	Prune(ctx context.Context, olderThan time.Time) (deleted int, remaining int, err error)
}

// TrashStore persists trash index records. Records are immutable once
// created and removed on restore or purge.
type TrashStore interface {
	Create(ctx context.Context, record model.TrashRecord) error
	FindByID(ctx context.Context, id string) (model.TrashRecord, error)
	List(ctx context.Context) ([]model.TrashRecord, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.TrashRecord, error)
	Delete(ctx context.Context, id string) error
}
