//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
)

func uploadFiles(t *testing.T, url string, destination string, files map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("path", destination))
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/v1/files/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestFileUploadAndDownload(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.MkdirAll("/uploads", 0o755))

	server := newTestServer(t, store)

	resp := uploadFiles(t, server.URL, "/uploads", map[string]string{"hello.txt": "hello world"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeEnvelope(t, resp)
	var uploaded model.UploadResponse
	require.NoError(t, json.Unmarshal(parsed.Data, &uploaded))
	require.Len(t, uploaded.Uploaded, 1)
	require.Equal(t, "/uploads/hello.txt", uploaded.Uploaded[0].Path)
	require.Empty(t, uploaded.Failed)

	// A second upload of the same name lands under a numbered suffix.
	again := uploadFiles(t, server.URL, "/uploads", map[string]string{"hello.txt": "second copy"})
	require.Equal(t, http.StatusOK, again.StatusCode)

	againParsed := decodeEnvelope(t, again)
	var renamed model.UploadResponse
	require.NoError(t, json.Unmarshal(againParsed.Data, &renamed))
	require.Len(t, renamed.Uploaded, 1)
	require.Equal(t, "/uploads/hello (1).txt", renamed.Uploaded[0].Path)

	downloadResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/download?path=/uploads/hello.txt", nil)
	require.Equal(t, http.StatusOK, downloadResp.StatusCode)
	require.Contains(t, downloadResp.Header.Get("Content-Disposition"), "attachment")

	content, err := io.ReadAll(downloadResp.Body)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))
}

func TestFileContentEditRoundTrip(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	seedFile(t, store, "/notes/todo.md", "- first")

	server := newTestServer(t, store)

	readResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/content?path=/notes/todo.md", nil)
	require.Equal(t, http.StatusOK, readResp.StatusCode)

	readParsed := decodeEnvelope(t, readResp)
	var content model.FileContentData
	require.NoError(t, json.Unmarshal(readParsed.Data, &content))
	require.Equal(t, "- first", content.Content)

	savePayload := model.SaveRequest{Path: "/notes/todo.md", Content: "- first\n- second"}
	saveResp := doJSONRequest(t, http.MethodPut, server.URL+"/api/v1/files/content", savePayload)
	require.Equal(t, http.StatusOK, saveResp.StatusCode)

	rereadResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/content?path=/notes/todo.md", nil)
	rereadParsed := decodeEnvelope(t, rereadResp)
	var updated model.FileContentData
	require.NoError(t, json.Unmarshal(rereadParsed.Data, &updated))
	require.Equal(t, "- first\n- second", updated.Content)
}

func TestFileInfo(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	seedFile(t, store, "/docs/report.txt", "quarterly numbers")

	server := newTestServer(t, store)

	infoResp := doJSONRequest(t, http.MethodGet, server.URL+"/api/v1/files/info?path=/docs/report.txt", nil)
	require.Equal(t, http.StatusOK, infoResp.StatusCode)

	parsed := decodeEnvelope(t, infoResp)
	var item model.FileItem
	require.NoError(t, json.Unmarshal(parsed.Data, &item))
	require.Equal(t, "report.txt", item.Name)
	require.Equal(t, "file", item.Type)
	require.True(t, item.Editable)
	require.Equal(t, int64(len("quarterly numbers")), item.Size)
}
