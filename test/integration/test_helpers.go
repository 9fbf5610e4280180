//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/config"
	"go-file-manager/internal/event"
	"go-file-manager/internal/handler"
	"go-file-manager/internal/repository"
	"go-file-manager/internal/router"
	"go-file-manager/internal/service"
	"go-file-manager/internal/storage"
	"go-file-manager/internal/websocket"
)

func newTestServer(t *testing.T, store *storage.Disk) *httptest.Server {
	t.Helper()

	stateDir := t.TempDir()
	trashRoot := filepath.Join(stateDir, "trash")
	trashIndexFile := filepath.Join(stateDir, "trash-index.json")
	activityLogFile := filepath.Join(stateDir, "activity.log")
	thumbnailRoot := filepath.Join(stateDir, "thumbnails")

	cfg := &config.Config{
		ServerPort:              "8080",
		ServerReadHeaderTimeout: 15 * time.Second,
		ServerWriteTimeout:      60 * time.Second,
		ServerIdleTimeout:       120 * time.Second,
		RequestTimeout:          30 * time.Second,
		StreamMaxDuration:       30 * time.Minute,
		StreamIdleTimeout:       2 * time.Minute,
		StorageRoot:             store.RootAbs(),
		TrashRoot:               trashRoot,
		TrashIndexFile:          trashIndexFile,
		ActivityLogFile:         activityLogFile,
		ThumbnailRoot:           thumbnailRoot,
		MaxUploadSize:           10 * 1024 * 1024,
		MaxEditSize:             1024 * 1024,
		EditableExtensions:      []string{".txt", ".md", ".json"},
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            10000,
		LockoutThreshold:        1000,
		LockoutWindow:           time.Minute,
		LockoutCooldown:         time.Minute,
		StoreLockTimeout:        3 * time.Second,
		TrashRetentionDays:      30,
		ActivityRetentionDays:   90,
		SearchMaxDepth:          10,
		SearchTimeout:           30 * time.Second,
	}

	activityStore, err := repository.NewActivityFileStore(activityLogFile, cfg.StoreLockTimeout)
	require.NoError(t, err)
	trashStore, err := repository.NewTrashFileStore(trashIndexFile, cfg.StoreLockTimeout)
	require.NoError(t, err)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	activityService := service.NewActivityService(activityStore)
	go func() {
		for range activityService.Results() {
		}
	}()

	trashService, err := service.NewTrashService(store, trashRoot, trashStore, activityService, bus)
	require.NoError(t, err)

	directoryService := service.NewDirectoryService(store, activityService, bus)
	fileService := service.NewFileService(store, cfg.AllowedMIMETypes, cfg.EditableExtensions, cfg.MaxUploadSize, cfg.MaxEditSize, thumbnailRoot, activityService, bus)
	operationsService := service.NewOperationsService(store, trashService, activityService, bus)
	archiveService := service.NewArchiveService(store, activityService, bus)
	searchService := service.NewSearchService(store, cfg.SearchMaxDepth, cfg.SearchTimeout)

	server := httptest.NewServer(router.New(
		cfg,
		handler.NewDirectoryHandler(directoryService, fileService, trashService),
		handler.NewFileHandler(fileService, archiveService, cfg.MaxUploadSize),
		handler.NewOperationsHandler(operationsService),
		handler.NewTrashHandler(trashService),
		handler.NewArchiveHandler(archiveService),
		handler.NewActivityHandler(activityService),
		handler.NewSearchHandler(searchService),
		hub,
	))
	t.Cleanup(server.Close)

	return server
}

func seedFile(t *testing.T, store *storage.Disk, clientPath string, content string) {
	t.Helper()

	dir := filepath.ToSlash(filepath.Dir(clientPath))
	if dir != "/" && dir != "." {
		require.NoError(t, store.MkdirAll(dir, 0o755))
	}
	_, err := store.WriteAtomic(clientPath, strings.NewReader(content), 0o644)
	require.NoError(t, err)
}

func doJSONRequest(t *testing.T, method string, url string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader([]byte{})
	} else {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}
