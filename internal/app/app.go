package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-file-manager/internal/config"
	"go-file-manager/internal/database"
	"go-file-manager/internal/event"
	"go-file-manager/internal/handler"
	"go-file-manager/internal/model"
	"go-file-manager/internal/repository"
	"go-file-manager/internal/router"
	"go-file-manager/internal/service"
	"go-file-manager/internal/storage"
	"go-file-manager/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.New(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var (
		db            *database.DB
		activityStore repository.ActivityStore
		trashStore    repository.TrashStore
	)

	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err = database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		activityStore = repository.NewActivityPGStore(db.Pool)
		trashStore = repository.NewTrashPGStore(db.Pool)
		slog.Info("database ready")
	} else {
		activityStore, err = repository.NewActivityFileStore(cfg.ActivityLogFile, cfg.StoreLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open activity log: %w", err)
		}

		trashStore, err = repository.NewTrashFileStore(cfg.TrashIndexFile, cfg.StoreLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open trash index: %w", err)
		}
		slog.Info("file-backed stores ready", "activity", cfg.ActivityLogFile, "trash_index", cfg.TrashIndexFile)
	}

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	activityService := service.NewActivityService(activityStore)
	go drainActivityResults(activityService)

	trashService, err := service.NewTrashService(store, cfg.TrashRoot, trashStore, activityService, bus)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to initialize trash service: %w", err)
	}

	directoryService := service.NewDirectoryService(store, activityService, bus)
	fileService := service.NewFileService(store, cfg.AllowedMIMETypes, cfg.EditableExtensions, cfg.MaxUploadSize, cfg.MaxEditSize, cfg.ThumbnailRoot, activityService, bus)
	operationsService := service.NewOperationsService(store, trashService, activityService, bus)
	archiveService := service.NewArchiveService(store, activityService, bus)
	searchService := service.NewSearchService(store, cfg.SearchMaxDepth, cfg.SearchTimeout)

	appRouter := router.New(
		cfg,
		handler.NewDirectoryHandler(directoryService, fileService, trashService),
		handler.NewFileHandler(fileService, archiveService, cfg.MaxUploadSize),
		handler.NewOperationsHandler(operationsService),
		handler.NewTrashHandler(trashService),
		handler.NewArchiveHandler(archiveService),
		handler.NewActivityHandler(activityService),
		handler.NewSearchHandler(searchService),
		hub,
	)

	retentionCtx, retentionCancel := context.WithCancel(context.Background())
	go runRetentionTicker(retentionCtx, trashService, activityService, cfg.TrashRetentionDays, cfg.ActivityRetentionDays)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	cleanup := []func(){retentionCancel}
	if db != nil {
		cleanup = append(cleanup, db.Close)
	}

	return &App{server: server, db: db, cleanupFuncs: cleanup}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// drainActivityResults keeps the best-effort log result channel from
// filling up. Failures are already logged inside the service; here they
// only surface at debug level for correlation.
func drainActivityResults(activity *service.ActivityService) {
	for result := range activity.Results() {
		if result.Err != nil {
			slog.Debug("activity append failed", "action", result.Action, "error", result.Err.Error())
		}
	}
}

func systemActor() model.Actor {
	return model.Actor{IP: "system", UserAgent: "retention-scheduler"}
}

// runRetentionTicker applies the configured retention windows once a day.
// A non-positive retention disables the sweep for that store.
func runRetentionTicker(ctx context.Context, trash *service.TrashService, activity *service.ActivityService, trashDays int, activityDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if trashDays > 0 {
				if _, err := trash.Cleanup(ctx, trashDays, systemActor()); err != nil {
					slog.Warn("scheduled trash cleanup failed", "error", err.Error())
				}
			}
			if activityDays > 0 {
				if _, err := activity.Cleanup(ctx, activityDays, systemActor()); err != nil {
					slog.Warn("scheduled activity cleanup failed", "error", err.Error())
				}
			}
		}
	}
}
