//go:build integration

package integration

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
)

func TestSecurityHeadersOnResponses(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	server := newTestServer(t, store)

	resp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
}

func TestTraversalAttemptsAreRejected(t *testing.T) {
	root := t.TempDir()
	store, err := storage.New(root)
	require.NoError(t, err)

	// A file just outside the managed root that must never be reachable.
	secret := filepath.Join(filepath.Dir(root), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o644))
	t.Cleanup(func() { _ = os.Remove(secret) })

	server := newTestServer(t, store)

	attempts := []string{
		"/api/v1/files?path=../",
		"/api/v1/files?path=..%2F..%2Fetc",
		"/api/v1/files/content?path=../secret.txt",
		"/api/v1/files/download?path=..%5C..%5Cwindows",
	}

	for _, attempt := range attempts {
		resp := doJSONRequest(t, http.MethodGet, server.URL+attempt, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode, "attempt %q", attempt)

		parsed := decodeEnvelope(t, resp)
		require.False(t, parsed.Success)
		require.NotNil(t, parsed.Error)
		require.Equal(t, "PATH_TRAVERSAL", parsed.Error.Code)
	}
}

func TestHostileNamesAreRejected(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	server := newTestServer(t, store)

	payload := model.CreateRequest{Path: "/", Name: "evil/../name.txt", Type: "file"}
	resp := doJSONRequest(t, http.MethodPost, server.URL+"/api/v1/files", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	parsed := decodeEnvelope(t, resp)
	require.False(t, parsed.Success)
	require.Equal(t, "VALIDATION_ERROR", parsed.Error.Code)
}

func TestDeleteRootIsRefused(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	seedFile(t, store, "/keep.txt", "keep")

	server := newTestServer(t, store)

	payload := model.DeleteRequest{Paths: []string{"/"}}
	resp := doJSONRequest(t, http.MethodDelete, server.URL+"/api/v1/files", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	if _, err := store.Stat("/keep.txt"); err != nil {
		t.Fatalf("expected root contents to survive: %v", err)
	}
}
