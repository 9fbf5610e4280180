package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/pkg/apierror"
)

type DirectoryHandler struct {
	directories *service.DirectoryService
	files       *service.FileService
	trash       *service.TrashService
}

func NewDirectoryHandler(directories *service.DirectoryService, files *service.FileService, trash *service.TrashService) *DirectoryHandler {
	return &DirectoryHandler{directories: directories, files: files, trash: trash}
}

func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	requestedPath := query.Get("path")

	page := parseIntOrDefault(query.Get("page"), 1)
	limit := parseIntOrDefault(query.Get("limit"), 100)
	sortBy := strings.TrimSpace(query.Get("sort"))
	order := strings.TrimSpace(query.Get("order"))

	data, meta, err := h.directories.List(r.Context(), requestedPath, page, limit, sortBy, order)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}

// Create makes either an empty file or a directory under the requested
// path, depending on the "type" field.
func (h *DirectoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Name) == "" {
		writeError(w, apierror.BadRequest("name is required", "name"))
		return
	}

	actor := actorFromRequest(r)

	var (
		data model.CreateData
		err  error
	)

	switch strings.ToLower(strings.TrimSpace(payload.Type)) {
	case "file":
		data, err = h.files.CreateFile(r.Context(), payload.Path, payload.Name, payload.Content, actor)
	case "", "directory", "folder":
		data, err = h.directories.CreateFolder(r.Context(), payload.Path, payload.Name, actor)
	default:
		writeError(w, apierror.BadRequest("type must be \"file\" or \"directory\"", "type"))
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, data, nil)
}

func (h *DirectoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	data, err := h.directories.Tree(r.Context(), query.Get("path"), parseIntOrDefault(query.Get("depth"), 1))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}

func (h *DirectoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.directories.Stats(r.Context(), h.trash.TrashBytes(r.Context()))
	writeSuccess(w, http.StatusOK, stats, nil)
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
