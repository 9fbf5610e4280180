package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/pkg/apierror"
)

type ArchiveHandler struct {
	archives *service.ArchiveService
}

func NewArchiveHandler(archives *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archives: archives}
}

func (h *ArchiveHandler) Compress(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if len(payload.Sources) == 0 {
		writeError(w, apierror.BadRequest("sources is required", "sources"))
		return
	}

	data, err := h.archives.Compress(r.Context(), payload.Sources, payload.Destination, payload.Name, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, data, nil)
}

// Extract unpacks a zip into the destination directory. Unsafe entries are
// skipped and reported, not fatal.
func (h *ArchiveHandler) Extract(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Source) == "" {
		writeError(w, apierror.BadRequest("source is required", "source"))
		return
	}

	data, err := h.archives.Extract(r.Context(), payload.Source, payload.Destination, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, batchStatus(len(data.Extracted), len(data.Rejected)), data, nil)
}

func (h *ArchiveHandler) ListContents(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	data, err := h.archives.ListContents(r.Context(), requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}
