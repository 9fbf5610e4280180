package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/pkg/apierror"
)

type ActivityHandler struct {
	activity *service.ActivityService
}

func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := model.ActivityQuery{
		Action:     strings.TrimSpace(params.Get("action")),
		TargetType: strings.TrimSpace(params.Get("target_type")),
		Path:       strings.TrimSpace(params.Get("path")),
		IP:         strings.TrimSpace(params.Get("ip")),
		From:       strings.TrimSpace(params.Get("from")),
		To:         strings.TrimSpace(params.Get("to")),
		SortBy:     strings.TrimSpace(params.Get("sort")),
		SortOrder:  strings.TrimSpace(params.Get("order")),
		Page:       parseIntOrDefault(params.Get("page"), 1),
		Limit:      parseIntOrDefault(params.Get("limit"), 50),
	}

	items, meta, err := h.activity.Query(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.ActivityListData{Items: items}, &meta)
}

// Cleanup prunes log entries older than the given number of days.
func (h *ActivityHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	data, err := h.activity.Cleanup(r.Context(), payload.Days, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}
