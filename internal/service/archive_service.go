package service

import (
	"context"
	"net/http"
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

type ArchiveService struct {
	store    storage.Storage
	activity *ActivityService
	bus      event.Bus
}

func NewArchiveService(store storage.Storage, activity *ActivityService, bus event.Bus) *ArchiveService {
	return &ArchiveService{store: store, activity: activity, bus: bus}
}

// Compress packs the sources into a zip archive created in the destination
// directory. All sources must exist up front; a name collision on the
// archive resolves through the numbered-suffix policy.
func (s *ArchiveService) Compress(_ context.Context, sources []string, destination string, name string, actor model.Actor) (model.CompressResponse, error) {
	if len(sources) == 0 {
		s.activity.Log("compress", actor, "failed", destination, "archive", nil, "sources are required")
		return model.CompressResponse{}, apierror.BadRequest("sources are required", "sources")
	}

	if strings.TrimSpace(name) == "" {
		name = "archive.zip"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}

	safeName, err := util.ValidateFilename(name)
	if err != nil {
		s.activity.Log("compress", actor, "failed", destination, "archive", map[string]any{"name": name}, err.Error())
		return model.CompressResponse{}, err
	}

	destination = normalizeAPIPath(destination)
	destInfo, err := s.store.Stat(destination)
	if err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("destination directory does not exist", destination)
		}
		s.activity.Log("compress", actor, "failed", destination, "archive", nil, err.Error())
		return model.CompressResponse{}, err
	}
	if !destInfo.IsDir() {
		err := apierror.BadRequest("destination is not a directory", destination)
		s.activity.Log("compress", actor, "failed", destination, "archive", nil, err.Error())
		return model.CompressResponse{}, err
	}

	zipSources := make([]util.ZipSource, 0, len(sources))
	for _, source := range sources {
		source = normalizeAPIPath(source)
		if source == "/" {
			err := apierror.BadRequest("root path cannot be archived", source)
			s.activity.Log("compress", actor, "failed", source, "archive", nil, err.Error())
			return model.CompressResponse{}, err
		}

		resolved, resolveErr := s.store.Resolve(source)
		if resolveErr != nil {
			s.activity.Log("compress", actor, "failed", source, "archive", nil, resolveErr.Error())
			return model.CompressResponse{}, resolveErr
		}

		if _, statErr := os.Stat(resolved); statErr != nil {
			if os.IsNotExist(statErr) {
				statErr = apierror.NotFound("source path not found", source)
			}
			s.activity.Log("compress", actor, "failed", source, "archive", nil, statErr.Error())
			return model.CompressResponse{}, statErr
		}

		zipSources = append(zipSources, util.ZipSource{Abs: resolved, Name: filepath.Base(source)})
	}

	archivePath := normalizeAPIPath(filepath.Join(destination, safeName))
	archivePath, _, err = resolveConflictTarget(s.store, archivePath, ConflictPolicyRename)
	if err != nil {
		s.activity.Log("compress", actor, "failed", archivePath, "archive", nil, err.Error())
		return model.CompressResponse{}, err
	}

	archiveResolved, err := s.store.Resolve(archivePath)
	if err != nil {
		return model.CompressResponse{}, err
	}

	entries, err := util.CompressPaths(zipSources, archiveResolved)
	if err != nil {
		_ = os.Remove(archiveResolved)
		metrics.RecordOperation("compress", false)
		s.activity.Log("compress", actor, "failed", archivePath, "archive", nil, err.Error())
		return model.CompressResponse{}, err
	}

	info, err := os.Stat(archiveResolved)
	if err != nil {
		return model.CompressResponse{}, err
	}

	archive := model.FileItem{
		Name:        filepath.Base(archivePath),
		Path:        archivePath,
		Type:        "file",
		Size:        info.Size(),
		SizeHuman:   humanizeSize(info.Size()),
		Extension:   ".zip",
		MimeType:    "application/zip",
		ModifiedAt:  info.ModTime().UTC(),
		Permissions: info.Mode().String(),
	}

	metrics.RecordOperation("compress", true)
	s.activity.Log("compress", actor, "success", archivePath, "archive", map[string]any{"entries": entries, "sources": len(sources)}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeArchiveCreated, Payload: archive})
	}

	return model.CompressResponse{Archive: archive, Entries: entries}, nil
}

// Extract unpacks a zip archive into the destination directory. Entries
// that would land outside the destination are rejected and reported while
// the remaining entries still extract; a hostile archive cannot veto its
// harmless contents.
func (s *ArchiveService) Extract(_ context.Context, source string, destination string, actor model.Actor) (model.ExtractResponse, error) {
	source = normalizeAPIPath(source)
	if !strings.HasSuffix(strings.ToLower(source), ".zip") {
		err := apierror.New(apierror.CodeUnsupported, "only zip archives are supported", filepath.Ext(source), http.StatusUnsupportedMediaType)
		s.activity.Log("extract", actor, "failed", source, "archive", nil, err.Error())
		return model.ExtractResponse{}, err
	}

	sourceResolved, err := s.store.Resolve(source)
	if err != nil {
		s.activity.Log("extract", actor, "failed", source, "archive", nil, err.Error())
		return model.ExtractResponse{}, err
	}

	if info, statErr := os.Stat(sourceResolved); statErr != nil {
		if os.IsNotExist(statErr) {
			statErr = apierror.NotFound("archive not found", source)
		}
		s.activity.Log("extract", actor, "failed", source, "archive", nil, statErr.Error())
		return model.ExtractResponse{}, statErr
	} else if info.IsDir() {
		err := apierror.BadRequest("archive path points to a directory", source)
		s.activity.Log("extract", actor, "failed", source, "archive", nil, err.Error())
		return model.ExtractResponse{}, err
	}

	destination = normalizeAPIPath(destination)
	if err := s.store.MkdirAll(destination, 0o755); err != nil {
		s.activity.Log("extract", actor, "failed", destination, "archive", nil, err.Error())
		return model.ExtractResponse{}, err
	}

	destResolved, err := s.store.Resolve(destination)
	if err != nil {
		return model.ExtractResponse{}, err
	}

	extractedAbs, rejected, err := util.ExtractZip(sourceResolved, destResolved)
	if err != nil {
		metrics.RecordOperation("extract", false)
		s.activity.Log("extract", actor, "failed", source, "archive", map[string]any{"destination": destination}, err.Error())
		return model.ExtractResponse{}, err
	}

	extracted := make([]string, 0, len(extractedAbs))
	for _, abs := range extractedAbs {
		extracted = append(extracted, toAPIPath(abs, s.store.RootAbs()))
	}

	response := model.ExtractResponse{Extracted: extracted, Rejected: []model.ExtractFailure{}}
	for _, reject := range rejected {
		response.Rejected = append(response.Rejected, model.ExtractFailure{Entry: reject.Entry, Reason: reject.Reason})
	}

	metrics.RecordOperation("extract", true)
	s.activity.Log("extract", actor, "success", source, "archive",
		map[string]any{"destination": destination, "extracted": len(extracted), "rejected": len(rejected)}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeArchiveExtract, Payload: response})
	}

	return response, nil
}

// ListContents reads a zip archive's table of contents without extracting.
func (s *ArchiveService) ListContents(_ context.Context, source string) (model.ArchiveListData, error) {
	source = normalizeAPIPath(source)
	if !strings.HasSuffix(strings.ToLower(source), ".zip") {
		return model.ArchiveListData{}, apierror.New(apierror.CodeUnsupported, "only zip archives are supported", filepath.Ext(source), http.StatusUnsupportedMediaType)
	}

	resolved, err := s.store.Resolve(source)
	if err != nil {
		return model.ArchiveListData{}, err
	}

	if _, statErr := os.Stat(resolved); statErr != nil {
		if os.IsNotExist(statErr) {
			return model.ArchiveListData{}, apierror.NotFound("archive not found", source)
		}
		return model.ArchiveListData{}, statErr
	}

	entries, err := util.ListZip(resolved)
	if err != nil {
		return model.ArchiveListData{}, err
	}

	data := model.ArchiveListData{Path: source, Entries: make([]model.ArchiveEntry, 0, len(entries))}
	for _, entry := range entries {
		data.Entries = append(data.Entries, model.ArchiveEntry{
			Name:       entry.Name,
			Size:       entry.Size,
			Compressed: entry.Compressed,
			IsDir:      entry.IsDir,
		})
	}

	return data, nil
}

// DirectoryForArchive validates a directory path for streaming zip
// downloads and returns its resolved location and archive base name.
func (s *ArchiveService) DirectoryForArchive(path string) (string, string, error) {
	resolved, err := s.store.Resolve(normalizeAPIPath(path))
	if err != nil {
		return "", "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", apierror.NotFound("directory not found", normalizeAPIPath(path))
		}
		return "", "", err
	}

	if !info.IsDir() {
		return "", "", apierror.BadRequest("archive download requires a directory path", normalizeAPIPath(path))
	}

	name := strings.TrimSpace(filepath.Base(resolved))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "archive"
	}

	return resolved, name, nil
}
