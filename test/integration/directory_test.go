//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
)

func TestDirectoryListAndCreate(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	seedFile(t, store, "/docs/readme.md", "hello")
	seedFile(t, store, "/docs/notes.txt", "notes")

	server := newTestServer(t, store)

	createPayload := model.CreateRequest{Path: "/docs", Name: "reports", Type: "directory"}
	createResp := doJSONRequest(t, http.MethodPost, server.URL+"/api/v1/files", createPayload)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	parsed := decodeEnvelope(t, createResp)
	require.True(t, parsed.Success)

	var created model.CreateData
	require.NoError(t, json.Unmarshal(parsed.Data, &created))
	require.Equal(t, "/docs/reports", created.Path)
	require.Equal(t, "directory", created.Type)

	listResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files?path=/docs", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	listParsed := decodeEnvelope(t, listResp)
	require.True(t, listParsed.Success)
	require.NotNil(t, listParsed.Meta)
	require.Equal(t, 3, listParsed.Meta.Total)

	var listing model.DirectoryListData
	require.NoError(t, json.Unmarshal(listParsed.Data, &listing))
	require.Equal(t, "/docs", listing.CurrentPath)
	require.Len(t, listing.Items, 3)
	// Directories sort before files.
	require.Equal(t, "reports", listing.Items[0].Name)
}

func TestDirectoryTreeAndStats(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	seedFile(t, store, "/projects/alpha/main.go", "package main")
	seedFile(t, store, "/projects/beta/main.go", "package main")

	server := newTestServer(t, store)

	treeResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/tree?path=/projects&depth=2", nil)
	require.Equal(t, http.StatusOK, treeResp.StatusCode)

	treeParsed := decodeEnvelope(t, treeResp)
	var tree model.TreeData
	require.NoError(t, json.Unmarshal(treeParsed.Data, &tree))
	require.Len(t, tree.Nodes, 2)
	require.Equal(t, "/projects/alpha", tree.Nodes[0].Path)

	statsResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/stats", nil)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	statsParsed := decodeEnvelope(t, statsResp)
	var stats model.StorageStats
	require.NoError(t, json.Unmarshal(statsParsed.Data, &stats))
	require.Equal(t, 2, stats.FileCount)
	require.Equal(t, 3, stats.DirCount)
}
