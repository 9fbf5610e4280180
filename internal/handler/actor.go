package handler

import (
	"net/http"

	"go-file-manager/internal/middleware"
	"go-file-manager/internal/model"
)

// actorFromRequest captures who performed an operation for the activity log.
func actorFromRequest(r *http.Request) model.Actor {
	return model.Actor{
		IP:        middleware.ExtractClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
