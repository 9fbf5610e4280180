package handler

import (
	"net/http"
	"strings"

	"go-file-manager/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	data, meta, err := h.search.Search(
		r.Context(),
		strings.TrimSpace(params.Get("q")),
		strings.TrimSpace(params.Get("path")),
		strings.TrimSpace(params.Get("type")),
		strings.TrimSpace(params.Get("ext")),
		parseIntOrDefault(params.Get("page"), 1),
		parseIntOrDefault(params.Get("limit"), 50),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}
