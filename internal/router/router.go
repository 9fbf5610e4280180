package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-file-manager/internal/config"
	"go-file-manager/internal/handler"
	"go-file-manager/internal/metrics"
	"go-file-manager/internal/middleware"
	"go-file-manager/internal/websocket"
)

func New(
	cfg *config.Config,
	directoryHandler *handler.DirectoryHandler,
	fileHandler *handler.FileHandler,
	operationsHandler *handler.OperationsHandler,
	trashHandler *handler.TrashHandler,
	archiveHandler *handler.ArchiveHandler,
	activityHandler *handler.ActivityHandler,
	searchHandler *handler.SearchHandler,
	hub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		cfg.RateLimitRPM,
		cfg.LockoutThreshold,
		cfg.LockoutWindow,
		cfg.LockoutCooldown,
	)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})

		// Download-style routes stream large bodies and cannot sit behind
		// http.TimeoutHandler, which buffers the whole response.
		api.Group(func(streaming chi.Router) {
			streaming.Use(middleware.StreamingTimeout(cfg.StreamMaxDuration, cfg.StreamIdleTimeout))
			streaming.Get("/files/download", fileHandler.Download)
			streaming.Get("/files/preview", fileHandler.Preview)
			streaming.Get("/files/thumbnail", fileHandler.Thumbnail)
			streaming.Post("/files/upload", fileHandler.Upload)
		})

		api.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(cfg.RequestTimeout))

			timed.Get("/files", directoryHandler.List)
			timed.Post("/files", directoryHandler.Create)
			timed.Get("/files/tree", directoryHandler.Tree)
			timed.Get("/files/stats", directoryHandler.Stats)
			timed.Get("/files/info", fileHandler.Info)
			timed.Get("/files/content", fileHandler.Content)
			timed.Put("/files/content", fileHandler.Save)
			timed.Put("/files/rename", operationsHandler.Rename)
			timed.Put("/files/move", operationsHandler.Move)
			timed.Delete("/files", operationsHandler.Delete)

			timed.Get("/trash", trashHandler.List)
			timed.Post("/trash/restore", trashHandler.Restore)
			timed.Delete("/trash/{id}", trashHandler.Purge)
			timed.Delete("/trash", trashHandler.Empty)
			timed.Post("/trash/cleanup", trashHandler.Cleanup)

			timed.Post("/archives/compress", archiveHandler.Compress)
			timed.Post("/archives/extract", archiveHandler.Extract)
			timed.Get("/archives/contents", archiveHandler.ListContents)

			timed.Get("/activity", activityHandler.List)
			timed.Post("/activity/cleanup", activityHandler.Cleanup)

			timed.Get("/search", searchHandler.Search)
		})
	})

	return r
}
