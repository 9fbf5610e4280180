package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/pkg/apierror"
)

type TrashHandler struct {
	trash *service.TrashService
}

func NewTrashHandler(trash *service.TrashService) *TrashHandler {
	return &TrashHandler{trash: trash}
}

func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.trash.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, records, nil)
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.TrashID) == "" {
		writeError(w, apierror.BadRequest("trash_id is required", "trash_id"))
		return
	}

	record, err := h.trash.Restore(r.Context(), payload.TrashID, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

// Purge permanently removes one trash item. There is no undo past this
// point.
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	trashID := strings.TrimSpace(chi.URLParam(r, "id"))
	if trashID == "" {
		writeError(w, apierror.BadRequest("trash id is required", "id"))
		return
	}

	if err := h.trash.Purge(r.Context(), trashID, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"purged": trashID}, nil)
}

func (h *TrashHandler) Empty(w http.ResponseWriter, r *http.Request) {
	purged, err := h.trash.Empty(r.Context(), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"purged_count": purged}, nil)
}

// Cleanup purges trash items deleted strictly more than the given number
// of days ago.
func (h *TrashHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	data, err := h.trash.Cleanup(r.Context(), payload.Days, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}
