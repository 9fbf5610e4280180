package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-file-manager/internal/metrics"
	"go-file-manager/internal/model"
	"go-file-manager/internal/repository"
	"go-file-manager/pkg/apierror"
)

// LogResult reports the outcome of one best-effort log append.
type LogResult struct {
	Action string
	Err    error
}

// ActivityService records every mutating operation. Logging is best effort:
// a failed append never fails the operation that triggered it, the failure
// is reported on the Results channel instead.
type ActivityService struct {
	store       repository.ActivityStore
	results     chan LogResult
	logDeadline time.Duration
}

func NewActivityService(store repository.ActivityStore) *ActivityService {
	return &ActivityService{
		store:       store,
		results:     make(chan LogResult, 256),
		logDeadline: 5 * time.Second,
	}
}

// Results exposes append outcomes for observers (metrics, alerting, tests).
// The channel is never closed; sends are non-blocking.
func (s *ActivityService) Results() <-chan LogResult {
	return s.results
}

func (s *ActivityService) Log(action string, actor model.Actor, status string, targetPath string, targetType string, extra map[string]any, errText string) {
	if s == nil {
		return
	}

	entry := model.ActivityEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		TargetPath: targetPath,
		TargetType: targetType,
		Extra:      extra,
		Error:      errText,
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.logDeadline)
	defer cancel()

	err := s.store.Append(ctx, entry)
	if err != nil {
		if errors.Is(err, model.ErrLockTimeout) {
			metrics.LockTimeouts.Inc()
		}
		slog.Warn("activity log append failed", "action", action, "error", err)
	}

	select {
	case s.results <- LogResult{Action: action, Err: err}:
	default:
	}
}

func (s *ActivityService) Query(ctx context.Context, query model.ActivityQuery) ([]model.ActivityEntry, model.Meta, error) {
	entries, meta, err := s.store.Query(ctx, query)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			return nil, model.Meta{}, apierror.BadRequest("invalid activity query", err.Error())
		}
		return nil, model.Meta{}, err
	}

	return entries, meta, nil
}

// Cleanup purges entries strictly older than the retention window. Entries
// exactly `days` old survive; the cutoff comparison is strict.
func (s *ActivityService) Cleanup(ctx context.Context, days int, actor model.Actor) (model.ActivityCleanupData, error) {
	if days < 1 {
		return model.ActivityCleanupData{}, apierror.BadRequest("days must be a positive integer", "")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, remaining, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		if errors.Is(err, model.ErrLockTimeout) {
			metrics.LockTimeouts.Inc()
			return model.ActivityCleanupData{}, apierror.LockTimeout("activity store is busy, retry later")
		}
		s.Log("activity_cleanup", actor, "failed", "", "activity", map[string]any{"days": days}, err.Error())
		return model.ActivityCleanupData{}, err
	}

	data := model.ActivityCleanupData{DeletedCount: deleted, RemainingCount: remaining}
	s.Log("activity_cleanup", actor, "success", "", "activity", map[string]any{"days": days, "deleted_count": deleted}, "")
	return data, nil
}
