package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/pkg/apierror"
)

type OperationsHandler struct {
	operations *service.OperationsService
}

func NewOperationsHandler(operations *service.OperationsService) *OperationsHandler {
	return &OperationsHandler{operations: operations}
}

func (h *OperationsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Path) == "" {
		writeError(w, apierror.BadRequest("path is required", "path"))
		return
	}
	if strings.TrimSpace(payload.NewName) == "" {
		writeError(w, apierror.BadRequest("new_name is required", "new_name"))
		return
	}

	data, err := h.operations.Rename(r.Context(), payload.Path, payload.NewName, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}

// Move relocates a batch of paths into a destination directory. Items
// succeed or fail individually.
func (h *OperationsHandler) Move(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if len(payload.Sources) == 0 {
		writeError(w, apierror.BadRequest("sources is required", "sources"))
		return
	}
	if strings.TrimSpace(payload.Destination) == "" {
		writeError(w, apierror.BadRequest("destination is required", "destination"))
		return
	}

	data, err := h.operations.Move(r.Context(), payload.Sources, payload.Destination, payload.OnConflict, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, batchStatus(len(data.Moved), len(data.Failed)), data, nil)
}

// Delete soft-deletes a batch of paths into the trash.
func (h *OperationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	paths := payload.Paths
	if len(paths) == 0 && strings.TrimSpace(payload.Path) != "" {
		paths = []string{payload.Path}
	}
	if len(paths) == 0 {
		writeError(w, apierror.BadRequest("paths is required", "paths"))
		return
	}

	data, err := h.operations.Delete(r.Context(), paths, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, batchStatus(len(data.Deleted), len(data.Failed)), data, nil)
}
