package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go-file-manager/internal/model"
	"go-file-manager/internal/service"
	"go-file-manager/internal/util"
	"go-file-manager/pkg/apierror"
)

type FileHandler struct {
	files         *service.FileService
	archives      *service.ArchiveService
	maxUploadSize int64
}

func NewFileHandler(files *service.FileService, archives *service.ArchiveService, maxUploadSize int64) *FileHandler {
	return &FileHandler{files: files, archives: archives, maxUploadSize: maxUploadSize}
}

// Upload accepts a multipart form with any number of "files" parts plus
// optional "path" and "on_conflict" fields. Each file succeeds or fails on
// its own; the response status reflects the aggregate outcome.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.BadRequest("invalid multipart body", ""))
		return
	}

	destination := strings.TrimSpace(r.URL.Query().Get("path"))
	if destination == "" {
		destination = "/"
	}
	conflictPolicy := strings.TrimSpace(r.URL.Query().Get("on_conflict"))
	actor := actorFromRequest(r)
	result := model.UploadResponse{Uploaded: []model.UploadItem{}, Failed: []model.UploadFailure{}}

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			if isPayloadTooLarge(nextErr) {
				writeError(w, apierror.New(apierror.CodeTooLarge, "request body exceeds the upload limit", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
				return
			}
			writeError(w, apierror.BadRequest("invalid multipart stream", nextErr.Error()))
			return
		}

		switch part.FormName() {
		case "path":
			raw, _ := io.ReadAll(part)
			if value := strings.TrimSpace(string(raw)); value != "" {
				destination = value
			}
			_ = part.Close()
			continue
		case "on_conflict":
			raw, _ := io.ReadAll(part)
			if value := strings.TrimSpace(string(raw)); value != "" {
				conflictPolicy = value
			}
			_ = part.Close()
			continue
		}

		if part.FormName() != "files" || strings.TrimSpace(part.FileName()) == "" {
			_ = part.Close()
			continue
		}

		uploaded, uploadErr := h.files.Upload(r.Context(), destination, part.FileName(), 0, conflictPolicy, part, actor)
		if uploadErr != nil {
			if isPayloadTooLarge(uploadErr) {
				writeError(w, apierror.New(apierror.CodeTooLarge, "request body exceeds the upload limit", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
				_ = part.Close()
				return
			}
			result.Failed = append(result.Failed, model.UploadFailure{Name: part.FileName(), Reason: uploadErr.Error()})
			_ = part.Close()
			continue
		}

		result.Uploaded = append(result.Uploaded, uploaded)
		_ = part.Close()
	}

	writeSuccess(w, batchStatus(len(result.Uploaded), len(result.Failed)), result, nil)
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

// Download streams a file as an attachment. With archive=true and a
// directory path it streams the directory as a zip built on the fly.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	if strings.EqualFold(r.URL.Query().Get("archive"), "true") {
		directory, archiveName, err := h.archives.DirectoryForArchive(requestedPath)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": archiveName + ".zip"}))
		if err := util.StreamZipFromDirectory(directory, w); err != nil {
			writeError(w, err)
		}
		return
	}

	file, info, mimeType, err := h.files.GetFile(requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	filename := filepath.Base(requestedPath)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

func (h *FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	file, info, mimeType, err := h.files.GetFile(requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	filename := filepath.Base(requestedPath)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

func (h *FileHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	size := parseIntOrDefault(r.URL.Query().Get("size"), 256)

	file, info, err := h.files.GetThumbnail(requestedPath, size)
	if err != nil {
		// Non-image files simply have no thumbnail. 204 lets the UI fall
		// back to an icon without logging an error.
		if apierror.IsCode(err, apierror.CodeUnsupported) {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeError(w, err)
		return
	}
	defer file.Close()

	filename := filepath.Base(requestedPath) + ".jpg"
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

func (h *FileHandler) Info(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	item, err := h.files.GetInfo(requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

// Content returns the text of an editable file for the in-browser editor.
func (h *FileHandler) Content(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("query parameter 'path' is required", "path"))
		return
	}

	data, err := h.files.ReadText(r.Context(), requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}

func (h *FileHandler) Save(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Path) == "" {
		writeError(w, apierror.BadRequest("path is required", "path"))
		return
	}

	data, err := h.files.SaveText(r.Context(), payload.Path, payload.Content, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}
