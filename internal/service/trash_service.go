package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-file-manager/internal/event"
	"go-file-manager/internal/model"
	"go-file-manager/internal/repository"
	"go-file-manager/internal/storage"
	"go-file-manager/pkg/apierror"
)

// TrashService moves deleted entries into a holding area outside the managed
// root and tracks them in the trash index. Items are stored under their
// record ID so repeated deletions of the same name never collide.
type TrashService struct {
	store      storage.Storage
	trashRoot  string
	trashStore repository.TrashStore
	activity   *ActivityService
	bus        event.Bus
}

func NewTrashService(store storage.Storage, trashRoot string, trashStore repository.TrashStore, activity *ActivityService, bus event.Bus) (*TrashService, error) {
	if err := os.MkdirAll(trashRoot, 0o755); err != nil {
		return nil, fmt.Errorf("prepare trash directory: %w", err)
	}

	return &TrashService{
		store:      store,
		trashRoot:  trashRoot,
		trashStore: trashStore,
		activity:   activity,
		bus:        bus,
	}, nil
}

func (s *TrashService) SoftDelete(ctx context.Context, apiPath string, actor model.Actor) (model.TrashRecord, error) {
	apiPath = normalizeAPIPath(apiPath)

	resolved, err := s.store.Resolve(apiPath)
	if err != nil {
		return model.TrashRecord{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TrashRecord{}, apierror.NotFound("path not found", apiPath)
		}
		return model.TrashRecord{}, err
	}

	kind := "file"
	size := info.Size()
	if info.IsDir() {
		kind = "directory"
		size = dirSize(resolved)
	}

	record := model.TrashRecord{
		ID:           uuid.NewString(),
		OriginalPath: apiPath,
		OriginalKind: kind,
		SizeBytes:    size,
		DeletedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		DeletedBy:    actor,
	}

	trashPath := filepath.Join(s.trashRoot, record.ID)
	if err := movePath(resolved, trashPath); err != nil {
		return model.TrashRecord{}, fmt.Errorf("move to trash %q: %w", apiPath, err)
	}

	if err := s.trashStore.Create(ctx, record); err != nil {
		_ = movePath(trashPath, resolved)
		return model.TrashRecord{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileTrashed, Payload: record})
	}

	return record, nil
}

// Restore puts a trashed item back at its original path. The restore fails
// with a conflict when the original path is occupied again; the caller then
// frees the path or purges the record.
func (s *TrashService) Restore(ctx context.Context, trashID string, actor model.Actor) (model.TrashRecord, error) {
	if strings.TrimSpace(trashID) == "" {
		err := apierror.BadRequest("trash_id is required", "")
		s.activity.Log("restore", actor, "failed", "", "trash", nil, err.Error())
		return model.TrashRecord{}, err
	}

	record, err := s.trashStore.FindByID(ctx, trashID)
	if err != nil {
		s.activity.Log("restore", actor, "failed", "", "trash", map[string]any{"trash_id": trashID}, err.Error())
		return model.TrashRecord{}, err
	}

	targetResolved, err := s.store.Resolve(record.OriginalPath)
	if err != nil {
		s.activity.Log("restore", actor, "failed", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, err.Error())
		return model.TrashRecord{}, err
	}

	if _, statErr := os.Stat(targetResolved); statErr == nil {
		err := fmt.Errorf("%w: original path is occupied", model.ErrPathConflict)
		s.activity.Log("restore", actor, "failed", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, err.Error())
		return model.TrashRecord{}, err
	} else if !os.IsNotExist(statErr) {
		return model.TrashRecord{}, statErr
	}

	if err := os.MkdirAll(filepath.Dir(targetResolved), 0o755); err != nil {
		return model.TrashRecord{}, err
	}

	trashPath := filepath.Join(s.trashRoot, record.ID)
	if err := movePath(trashPath, targetResolved); err != nil {
		s.activity.Log("restore", actor, "failed", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, err.Error())
		return model.TrashRecord{}, fmt.Errorf("restore %q: %w", record.OriginalPath, err)
	}

	if err := s.trashStore.Delete(ctx, record.ID); err != nil {
		_ = movePath(targetResolved, trashPath)
		return model.TrashRecord{}, err
	}

	s.activity.Log("restore", actor, "success", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileRestored, Payload: record})
	}

	return record, nil
}

func (s *TrashService) List(ctx context.Context) ([]model.TrashRecord, error) {
	return s.trashStore.List(ctx)
}

// Purge permanently removes one trashed item and its record.
func (s *TrashService) Purge(ctx context.Context, trashID string, actor model.Actor) error {
	record, err := s.trashStore.FindByID(ctx, trashID)
	if err != nil {
		s.activity.Log("purge", actor, "failed", "", "trash", map[string]any{"trash_id": trashID}, err.Error())
		return err
	}

	trashPath := filepath.Join(s.trashRoot, record.ID)
	if err := os.RemoveAll(trashPath); err != nil && !os.IsNotExist(err) {
		s.activity.Log("purge", actor, "failed", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, err.Error())
		return fmt.Errorf("remove trash item %q: %w", trashID, err)
	}

	if err := s.trashStore.Delete(ctx, trashID); err != nil {
		return err
	}

	s.activity.Log("purge", actor, "success", record.OriginalPath, record.OriginalKind, map[string]any{"trash_id": trashID}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFilePurged, Payload: record})
	}

	return nil
}

// Empty purges every trashed item. Items whose payload cannot be removed
// are kept so their bytes stay reachable.
func (s *TrashService) Empty(ctx context.Context, actor model.Actor) (int, error) {
	records, err := s.trashStore.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range records {
		trashPath := filepath.Join(s.trashRoot, record.ID)
		if removeErr := os.RemoveAll(trashPath); removeErr != nil && !os.IsNotExist(removeErr) {
			continue
		}
		if deleteErr := s.trashStore.Delete(ctx, record.ID); deleteErr != nil && !errors.Is(deleteErr, model.ErrTrashItemNotFound) {
			continue
		}
		count++
	}

	s.activity.Log("empty_trash", actor, "success", "", "trash", map[string]any{"deleted_count": count}, "")
	return count, nil
}

// Cleanup purges trashed items strictly older than the retention window.
func (s *TrashService) Cleanup(ctx context.Context, days int, actor model.Actor) (model.TrashCleanupData, error) {
	if days < 1 {
		return model.TrashCleanupData{}, apierror.BadRequest("days must be a positive integer", "")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	expired, err := s.trashStore.ListOlderThan(ctx, cutoff)
	if err != nil {
		if errors.Is(err, model.ErrLockTimeout) {
			return model.TrashCleanupData{}, apierror.LockTimeout("trash store is busy, retry later")
		}
		return model.TrashCleanupData{}, err
	}

	deleted := 0
	for _, record := range expired {
		trashPath := filepath.Join(s.trashRoot, record.ID)
		if removeErr := os.RemoveAll(trashPath); removeErr != nil && !os.IsNotExist(removeErr) {
			continue
		}
		if deleteErr := s.trashStore.Delete(ctx, record.ID); deleteErr != nil && !errors.Is(deleteErr, model.ErrTrashItemNotFound) {
			continue
		}
		deleted++
	}

	remaining := 0
	if records, listErr := s.trashStore.List(ctx); listErr == nil {
		remaining = len(records)
	}

	data := model.TrashCleanupData{DeletedCount: deleted, RemainingCount: remaining}
	s.activity.Log("trash_cleanup", actor, "success", "", "trash", map[string]any{"days": days, "deleted_count": deleted}, "")
	return data, nil
}

// TrashBytes totals the payload size tracked by the index.
func (s *TrashService) TrashBytes(ctx context.Context) int64 {
	records, err := s.trashStore.List(ctx)
	if err != nil {
		return 0
	}

	var total int64
	for _, record := range records {
		total += record.SizeBytes
	}
	return total
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil || entry.IsDir() {
			return nil
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// movePath renames source to destination, falling back to copy-and-delete
// when the trash area lives on a different device than the managed root.
func movePath(source string, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	if err := os.Rename(source, destination); err == nil {
		return nil
	} else if !isCrossDeviceRenameError(err) {
		return err
	}

	if err := copyPathRecursive(source, destination); err != nil {
		return err
	}

	return os.RemoveAll(source)
}

func isCrossDeviceRenameError(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && strings.Contains(strings.ToLower(linkErr.Err.Error()), "cross-device") {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "cross-device")
}

func copyPathRecursive(source string, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(source, destination, info.Mode())
	}

	if err := os.MkdirAll(destination, info.Mode().Perm()); err != nil {
		return err
	}

	return filepath.WalkDir(source, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(source, current)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(destination, rel)
		entryInfo, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		if entry.IsDir() {
			return os.MkdirAll(target, entryInfo.Mode().Perm())
		}

		return copyFile(current, target, entryInfo.Mode())
	})
}

func copyFile(source string, destination string, mode os.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	output, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(output, input)
	closeErr := output.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
