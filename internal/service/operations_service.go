package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go-file-manager/internal/event"
	"go-file-manager/internal/metrics"
	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
	"go-file-manager/internal/util"
	"go-file-manager/pkg/apierror"
)

type OperationsService struct {
	store    storage.Storage
	trash    *TrashService
	activity *ActivityService
	bus      event.Bus
}

func NewOperationsService(store storage.Storage, trash *TrashService, activity *ActivityService, bus event.Bus) *OperationsService {
	return &OperationsService{store: store, trash: trash, activity: activity, bus: bus}
}

func (s *OperationsService) Rename(_ context.Context, oldPath string, newName string, actor model.Actor) (model.RenameResponse, error) {
	if strings.TrimSpace(oldPath) == "" {
		s.activity.Log("rename", actor, "failed", oldPath, "", nil, "path is required")
		return model.RenameResponse{}, apierror.BadRequest("path is required", "path")
	}

	oldAPIPath := normalizeAPIPath(oldPath)
	if oldAPIPath == "/" {
		s.activity.Log("rename", actor, "failed", oldAPIPath, "", nil, "root path cannot be renamed")
		return model.RenameResponse{}, apierror.BadRequest("root path cannot be renamed", oldAPIPath)
	}

	safeName, err := util.ValidateFilename(newName)
	if err != nil {
		s.activity.Log("rename", actor, "failed", oldAPIPath, "", map[string]any{"new_name": newName}, err.Error())
		return model.RenameResponse{}, err
	}

	if _, err := s.store.Stat(oldAPIPath); err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("path not found", oldAPIPath)
		}
		s.activity.Log("rename", actor, "failed", oldAPIPath, "", map[string]any{"new_name": safeName}, err.Error())
		return model.RenameResponse{}, err
	}

	newAPIPath := normalizeAPIPath(filepath.Join(filepath.Dir(oldAPIPath), safeName))
	if newAPIPath == oldAPIPath {
		result := model.RenameResponse{OldPath: oldAPIPath, NewPath: newAPIPath, Name: safeName}
		return result, nil
	}

	if _, err := s.store.Stat(newAPIPath); err == nil {
		s.activity.Log("rename", actor, "failed", oldAPIPath, "", map[string]any{"new_name": safeName}, "target path already exists")
		return model.RenameResponse{}, apierror.Conflict("target path already exists", newAPIPath)
	}

	if err := s.store.Rename(oldAPIPath, newAPIPath); err != nil {
		s.activity.Log("rename", actor, "failed", oldAPIPath, "", map[string]any{"new_name": safeName}, err.Error())
		return model.RenameResponse{}, err
	}

	result := model.RenameResponse{OldPath: oldAPIPath, NewPath: newAPIPath, Name: safeName}
	metrics.RecordOperation("rename", true)
	s.activity.Log("rename", actor, "success", oldAPIPath, "", map[string]any{"new_path": newAPIPath}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileRenamed, Payload: result})
	}

	return result, nil
}

// Move relocates sources into the destination directory. Each source is an
// independent outcome; a failed one never rolls back the others. Moving a
// directory into itself or its own subtree is rejected. By default an
// occupied target fails the item; overwrite, rename and skip are opt-in.
func (s *OperationsService) Move(_ context.Context, sources []string, destination string, conflictPolicy string, actor model.Actor) (model.MoveResponse, error) {
	if len(sources) == 0 {
		s.activity.Log("move", actor, "failed", destination, "", map[string]any{"sources": sources}, "sources are required")
		return model.MoveResponse{}, apierror.BadRequest("sources are required", "sources")
	}

	normalizedPolicy, err := normalizeConflictPolicy(conflictPolicy, ConflictPolicyReject)
	if err != nil {
		s.activity.Log("move", actor, "failed", destination, "", map[string]any{"conflict_policy": conflictPolicy}, err.Error())
		return model.MoveResponse{}, err
	}

	destination = normalizeAPIPath(destination)
	destInfo, err := s.store.Stat(destination)
	if err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("destination directory does not exist", destination)
		}
		s.activity.Log("move", actor, "failed", destination, "", map[string]any{"sources": sources}, err.Error())
		return model.MoveResponse{}, err
	}
	if !destInfo.IsDir() {
		err := apierror.BadRequest("destination is not a directory", destination)
		s.activity.Log("move", actor, "failed", destination, "", map[string]any{"sources": sources}, err.Error())
		return model.MoveResponse{}, err
	}

	result := model.MoveResponse{Moved: []model.MoveResult{}, Failed: []model.MoveFailure{}}

	for _, source := range sources {
		source = normalizeAPIPath(source)
		if source == "/" {
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: "root path cannot be moved"})
			s.activity.Log("move", actor, "failed", source, "", nil, "root path cannot be moved")
			continue
		}

		if destination == source || isDescendantPath(source, destination) {
			reason := "cannot move a directory into itself or its own subtree"
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: reason})
			s.activity.Log("move", actor, "failed", source, "", map[string]any{"to": destination}, reason)
			continue
		}

		if _, statErr := s.store.Stat(source); statErr != nil {
			reason := statErr.Error()
			if os.IsNotExist(statErr) {
				reason = "source path not found"
			}
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: reason})
			s.activity.Log("move", actor, "failed", source, "", nil, reason)
			continue
		}

		target := normalizeAPIPath(filepath.Join(destination, filepath.Base(source)))
		if source == target {
			result.Moved = append(result.Moved, model.MoveResult{From: source, To: target})
			continue
		}

		resolvedTarget, skipped, resolveErr := resolveConflictTarget(s.store, target, normalizedPolicy)
		if resolveErr != nil {
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: resolveErr.Error()})
			s.activity.Log("move", actor, "failed", source, "", map[string]any{"to": target}, resolveErr.Error())
			continue
		}
		if skipped {
			reason := "skipped: target already exists"
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: reason})
			s.activity.Log("move", actor, "failed", source, "", map[string]any{"to": target}, reason)
			continue
		}

		if err := s.store.Rename(source, resolvedTarget); err != nil {
			result.Failed = append(result.Failed, model.MoveFailure{From: source, Reason: err.Error()})
			s.activity.Log("move", actor, "failed", source, "", nil, err.Error())
			continue
		}

		moved := model.MoveResult{From: source, To: resolvedTarget}
		result.Moved = append(result.Moved, moved)
		metrics.RecordOperation("move", true)
		s.activity.Log("move", actor, "success", source, "", map[string]any{"to": resolvedTarget}, "")
		if s.bus != nil {
			s.bus.Publish(event.Event{Type: event.TypeFileMoved, Payload: moved})
		}
	}

	return result, nil
}

// Delete soft-deletes each path into the trash. Like Move, outcomes are
// per item.
func (s *OperationsService) Delete(ctx context.Context, paths []string, actor model.Actor) (model.DeleteResponse, error) {
	if len(paths) == 0 {
		s.activity.Log("delete", actor, "failed", "", "", map[string]any{"paths": paths}, "paths are required")
		return model.DeleteResponse{}, apierror.BadRequest("paths are required", "paths")
	}

	result := model.DeleteResponse{Deleted: []model.TrashRecord{}, Failed: []model.DeleteFailure{}}

	for _, path := range paths {
		path = normalizeAPIPath(path)
		if path == "/" {
			result.Failed = append(result.Failed, model.DeleteFailure{Path: path, Reason: "root path cannot be deleted"})
			s.activity.Log("delete", actor, "failed", path, "", nil, "root path cannot be deleted")
			continue
		}

		record, err := s.trash.SoftDelete(ctx, path, actor)
		if err != nil {
			result.Failed = append(result.Failed, model.DeleteFailure{Path: path, Reason: err.Error()})
			metrics.RecordOperation("delete", false)
			s.activity.Log("delete", actor, "failed", path, "", nil, err.Error())
			continue
		}

		result.Deleted = append(result.Deleted, record)
		metrics.RecordOperation("delete", true)
		s.activity.Log("delete", actor, "success", path, record.OriginalKind, map[string]any{"trash_id": record.ID}, "")
	}

	return result, nil
}

// isDescendantPath reports whether candidate lives inside ancestor. The
// check is segment-aware: "/docs-2" is not a descendant of "/docs".
func isDescendantPath(ancestor string, candidate string) bool {
	ancestor = normalizeAPIPath(ancestor)
	candidate = normalizeAPIPath(candidate)

	if ancestor == "/" {
		return candidate != "/"
	}

	return strings.HasPrefix(candidate, ancestor+"/")
}
