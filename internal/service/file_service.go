package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-file-manager/internal/event"
	"go-file-manager/internal/metrics"
	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
	"go-file-manager/internal/util"
	"go-file-manager/pkg/apierror"
)

type FileService struct {
	store            storage.Storage
	allowedMIMETypes map[string]struct{}
	editable         util.ExtensionSet
	maxUploadSize    int64
	maxEditSize      int64
	thumbnailRoot    string
	activity         *ActivityService
	bus              event.Bus
}

func NewFileService(store storage.Storage, allowedMIMETypes []string, editableExtensions []string, maxUploadSize int64, maxEditSize int64, thumbnailRoot string, activity *ActivityService, bus event.Bus) *FileService {
	allowed := make(map[string]struct{}, len(allowedMIMETypes))
	for _, mimeType := range allowedMIMETypes {
		trimmed := strings.TrimSpace(strings.ToLower(mimeType))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if strings.TrimSpace(thumbnailRoot) == "" {
		thumbnailRoot = "./state/thumbnails"
	}

	return &FileService{
		store:            store,
		allowedMIMETypes: allowed,
		editable:         util.NewExtensionSet(editableExtensions),
		maxUploadSize:    maxUploadSize,
		maxEditSize:      maxEditSize,
		thumbnailRoot:    thumbnailRoot,
		activity:         activity,
		bus:              bus,
	}
}

// Upload writes one incoming file below destination. The write goes through
// a temp file and lands with a single rename, so a failed upload never
// leaves a partial file at the target path.
func (s *FileService) Upload(_ context.Context, destination string, filename string, declaredSize int64, conflictPolicy string, reader io.Reader, actor model.Actor) (model.UploadItem, error) {
	safeName, err := util.ValidateFilename(filename)
	if err != nil {
		s.activity.Log("upload", actor, "failed", normalizeAPIPath(destination), "file", map[string]any{"name": filename}, err.Error())
		return model.UploadItem{}, err
	}

	if err := util.ValidateSize(declaredSize, s.maxUploadSize, "upload"); err != nil {
		s.activity.Log("upload", actor, "failed", normalizeAPIPath(destination), "file", map[string]any{"name": safeName, "size": declaredSize}, err.Error())
		return model.UploadItem{}, err
	}

	destinationPath := normalizeAPIPath(destination)
	destInfo, err := s.store.Stat(destinationPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("destination directory does not exist", destinationPath)
		}
		s.activity.Log("upload", actor, "failed", destinationPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.UploadItem{}, err
	}
	if !destInfo.IsDir() {
		err := apierror.BadRequest("destination is not a directory", destinationPath)
		s.activity.Log("upload", actor, "failed", destinationPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.UploadItem{}, err
	}

	normalizedPolicy, err := normalizeConflictPolicy(conflictPolicy, ConflictPolicyRename)
	if err != nil {
		s.activity.Log("upload", actor, "failed", destinationPath, "file", map[string]any{"conflict_policy": conflictPolicy}, err.Error())
		return model.UploadItem{}, err
	}

	targetPath := normalizeAPIPath(filepath.Join(destinationPath, safeName))
	targetPath, skipped, err := resolveConflictTarget(s.store, targetPath, normalizedPolicy)
	if err != nil {
		s.activity.Log("upload", actor, "failed", destinationPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.UploadItem{}, err
	}
	if skipped {
		err := apierror.Conflict("target already exists and conflict_policy=skip", safeName)
		s.activity.Log("upload", actor, "failed", destinationPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.UploadItem{}, err
	}

	sniffBuffer := make([]byte, 3072)
	n, readErr := io.ReadFull(reader, sniffBuffer)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return model.UploadItem{}, readErr
	}

	detectedMIME := util.DetectMIME(sniffBuffer[:n])
	if !s.isAllowedMIME(detectedMIME) {
		err := apierror.New(apierror.CodeUnsupported, "file MIME type is not allowed", detectedMIME, http.StatusUnsupportedMediaType)
		s.activity.Log("upload", actor, "failed", targetPath, "file", map[string]any{"mime_type": detectedMIME}, err.Error())
		return model.UploadItem{}, err
	}

	contentReader := io.Reader(io.MultiReader(bytes.NewReader(sniffBuffer[:n]), reader))
	if s.maxUploadSize > 0 {
		contentReader = io.LimitReader(contentReader, s.maxUploadSize+1)
	}

	written, err := s.store.WriteAtomic(targetPath, contentReader, 0o644)
	if err != nil {
		s.activity.Log("upload", actor, "failed", targetPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.UploadItem{}, err
	}

	if s.maxUploadSize > 0 && written > s.maxUploadSize {
		_ = s.store.RemoveAll(targetPath)
		err := util.ValidateSize(written, s.maxUploadSize, "upload")
		s.activity.Log("upload", actor, "failed", targetPath, "file", map[string]any{"name": safeName, "size": written}, err.Error())
		return model.UploadItem{}, err
	}

	item := model.UploadItem{
		Name:     filepath.Base(targetPath),
		Path:     targetPath,
		Size:     written,
		MimeType: detectedMIME,
	}

	metrics.UploadBytes.Add(float64(written))
	s.activity.Log("upload", actor, "success", targetPath, "file", map[string]any{"size": written, "mime_type": detectedMIME}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileUploaded, Payload: item})
	}

	return item, nil
}

// CreateFile creates a new file with optional initial content. The parent
// directory must already exist.
func (s *FileService) CreateFile(_ context.Context, basePath string, name string, content string, actor model.Actor) (model.CreateData, error) {
	safeName, err := util.ValidateFilename(name)
	if err != nil {
		s.activity.Log("create_file", actor, "failed", normalizeAPIPath(basePath), "file", map[string]any{"name": name}, err.Error())
		return model.CreateData{}, err
	}

	parentPath := normalizeAPIPath(basePath)
	parentInfo, err := s.store.Stat(parentPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("parent directory does not exist", parentPath)
		}
		s.activity.Log("create_file", actor, "failed", parentPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.CreateData{}, err
	}
	if !parentInfo.IsDir() {
		err := apierror.BadRequest("parent path is not a directory", parentPath)
		s.activity.Log("create_file", actor, "failed", parentPath, "file", map[string]any{"name": safeName}, err.Error())
		return model.CreateData{}, err
	}

	fullPath := normalizeAPIPath(filepath.Join(parentPath, safeName))
	if _, statErr := s.store.Stat(fullPath); statErr == nil {
		err := apierror.Conflict("file already exists", fullPath)
		s.activity.Log("create_file", actor, "failed", fullPath, "file", nil, err.Error())
		return model.CreateData{}, err
	}

	written, err := s.store.WriteAtomic(fullPath, strings.NewReader(content), 0o644)
	if err != nil {
		s.activity.Log("create_file", actor, "failed", fullPath, "file", nil, err.Error())
		return model.CreateData{}, err
	}

	data := model.CreateData{
		Name:      safeName,
		Path:      fullPath,
		Type:      "file",
		Size:      written,
		CreatedAt: time.Now().UTC(),
	}

	s.activity.Log("create_file", actor, "success", fullPath, "file", map[string]any{"size": written}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileCreated, Payload: data})
	}

	return data, nil
}

// ReadText returns the content of an editable text file. Files outside the
// editable extension list, or larger than the edit ceiling, are refused.
func (s *FileService) ReadText(_ context.Context, path string) (model.FileContentData, error) {
	apiPath := normalizeAPIPath(path)
	if err := util.ValidateExtension(apiPath, s.editable); err != nil {
		return model.FileContentData{}, err
	}

	info, err := s.store.Stat(apiPath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.FileContentData{}, apierror.NotFound("file not found", apiPath)
		}
		return model.FileContentData{}, err
	}
	if info.IsDir() {
		return model.FileContentData{}, apierror.BadRequest("path points to a directory", apiPath)
	}

	if err := util.ValidateSize(info.Size(), s.maxEditSize, "editable file"); err != nil {
		return model.FileContentData{}, err
	}

	file, err := s.store.OpenForRead(apiPath)
	if err != nil {
		return model.FileContentData{}, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return model.FileContentData{}, err
	}

	// An allowed extension is not enough; the bytes themselves must be
	// text so the editor never receives binary content.
	if len(content) > 0 {
		if detected := util.DetectMIME(content); !util.IsTextMIME(detected) {
			return model.FileContentData{}, apierror.New(apierror.CodeUnsupported,
				"file content is not editable text", detected, http.StatusUnsupportedMediaType)
		}
	}

	return model.FileContentData{
		Path:       apiPath,
		Content:    string(content),
		Size:       info.Size(),
		ModifiedAt: info.ModTime().UTC(),
	}, nil
}

// SaveText overwrites the content of an existing editable file atomically.
func (s *FileService) SaveText(_ context.Context, path string, content string, actor model.Actor) (model.FileContentData, error) {
	apiPath := normalizeAPIPath(path)
	if err := util.ValidateExtension(apiPath, s.editable); err != nil {
		s.activity.Log("save", actor, "failed", apiPath, "file", nil, err.Error())
		return model.FileContentData{}, err
	}

	if err := util.ValidateSize(int64(len(content)), s.maxEditSize, "editable file"); err != nil {
		s.activity.Log("save", actor, "failed", apiPath, "file", map[string]any{"size": len(content)}, err.Error())
		return model.FileContentData{}, err
	}

	info, err := s.store.Stat(apiPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = apierror.NotFound("file not found", apiPath)
		}
		s.activity.Log("save", actor, "failed", apiPath, "file", nil, err.Error())
		return model.FileContentData{}, err
	}
	if info.IsDir() {
		err := apierror.BadRequest("path points to a directory", apiPath)
		s.activity.Log("save", actor, "failed", apiPath, "file", nil, err.Error())
		return model.FileContentData{}, err
	}

	written, err := s.store.WriteAtomic(apiPath, strings.NewReader(content), info.Mode().Perm())
	if err != nil {
		s.activity.Log("save", actor, "failed", apiPath, "file", nil, err.Error())
		return model.FileContentData{}, err
	}

	s.activity.Log("save", actor, "success", apiPath, "file", map[string]any{"size": written}, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeFileSaved, Payload: map[string]any{"path": apiPath, "size": written}})
	}

	return model.FileContentData{
		Path:       apiPath,
		Content:    content,
		Size:       written,
		ModifiedAt: time.Now().UTC(),
	}, nil
}

// GetFile opens a file for streaming (download or inline preview).
func (s *FileService) GetFile(path string) (*os.File, os.FileInfo, string, error) {
	apiPath := normalizeAPIPath(path)
	resolved, err := s.store.Resolve(apiPath)
	if err != nil {
		return nil, nil, "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, "", apierror.NotFound("file not found", apiPath)
		}
		return nil, nil, "", err
	}

	if info.IsDir() {
		return nil, nil, "", apierror.BadRequest("path points to a directory", apiPath)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, nil, "", err
	}

	mimeType, err := util.DetectMIMEFromFile(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, "", err
	}

	return file, info, mimeType, nil
}

func (s *FileService) GetInfo(path string) (model.FileItem, error) {
	apiPath := normalizeAPIPath(path)
	resolved, err := s.store.Resolve(apiPath)
	if err != nil {
		return model.FileItem{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return model.FileItem{}, apierror.NotFound("path not found", apiPath)
		}
		return model.FileItem{}, err
	}

	item := model.FileItem{
		Name:        info.Name(),
		Path:        toAPIPath(resolved, s.store.RootAbs()),
		Permissions: info.Mode().String(),
		ModifiedAt:  info.ModTime().UTC(),
	}

	if info.IsDir() {
		item.Type = "directory"
		item.Size = 0
		if children, readErr := os.ReadDir(resolved); readErr == nil {
			count := len(children)
			item.ItemCount = &count
		}
		return item, nil
	}

	item.Type = "file"
	item.Size = info.Size()
	item.SizeHuman = humanizeSize(info.Size())
	item.Extension = strings.ToLower(filepath.Ext(info.Name()))
	item.Editable = s.editable.Contains(info.Name())

	file, openErr := os.Open(resolved)
	if openErr == nil {
		defer file.Close()
		if mimeType, detectErr := util.DetectMIMEFromFile(file); detectErr == nil {
			item.MimeType = mimeType
			if util.IsImageMIME(mimeType) {
				item.IsImage = true
				item.PreviewURL = "/api/v1/files/preview?path=" + url.QueryEscape(item.Path)
				if util.IsThumbnailMIME(mimeType) {
					item.ThumbnailURL = "/api/v1/files/thumbnail?path=" + url.QueryEscape(item.Path) + "&size=256"
				}
			}
		}
	}

	return item, nil
}

// GetThumbnail serves a cached, scaled JPEG rendition of an image file,
// regenerating it when the source is newer than the cache entry.
func (s *FileService) GetThumbnail(path string, size int) (*os.File, os.FileInfo, error) {
	if size <= 0 {
		size = 256
	}
	if size > 2048 {
		size = 2048
	}

	apiPath := normalizeAPIPath(path)
	resolved, err := s.store.Resolve(apiPath)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apierror.NotFound("file not found", apiPath)
		}
		return nil, nil, err
	}

	if info.IsDir() {
		return nil, nil, apierror.BadRequest("path points to a directory", apiPath)
	}

	if err := os.MkdirAll(s.thumbnailRoot, 0o755); err != nil {
		return nil, nil, err
	}

	thumbPath := s.thumbnailPath(resolved, size)
	if thumbInfo, statErr := os.Stat(thumbPath); statErr == nil {
		if !thumbInfo.ModTime().Before(info.ModTime()) {
			if thumbFile, openErr := os.Open(thumbPath); openErr == nil {
				return thumbFile, thumbInfo, nil
			}
		}
	}

	return s.generateThumbnail(resolved, thumbPath, size, info)
}

func (s *FileService) generateThumbnail(resolved string, thumbPath string, size int, info os.FileInfo) (*os.File, os.FileInfo, error) {
	file, err := os.Open(resolved)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, nil, apierror.New(apierror.CodeUnsupported, "cannot decode image", err.Error(), http.StatusUnsupportedMediaType)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, nil, apierror.New(apierror.CodeUnsupported, "invalid image dimensions", "", http.StatusUnsupportedMediaType)
	}

	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	scale := float64(size) / float64(maxDim)
	if scale > 1 {
		scale = 1
	}

	targetWidth := int(math.Round(float64(width) * scale))
	targetHeight := int(math.Round(float64(height) * scale))
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	thumbWriter, err := os.OpenFile(thumbPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}

	encodeErr := jpeg.Encode(thumbWriter, dst, &jpeg.Options{Quality: 90})
	closeErr := thumbWriter.Close()
	if encodeErr != nil {
		return nil, nil, encodeErr
	}
	if closeErr != nil {
		return nil, nil, closeErr
	}

	_ = os.Chtimes(thumbPath, time.Now().UTC(), info.ModTime())

	thumbFile, err := os.Open(thumbPath)
	if err != nil {
		return nil, nil, err
	}

	thumbInfo, err := os.Stat(thumbPath)
	if err != nil {
		_ = thumbFile.Close()
		return nil, nil, err
	}

	return thumbFile, thumbInfo, nil
}

func (s *FileService) thumbnailPath(resolvedPath string, size int) string {
	hash := sha256.Sum256([]byte(resolvedPath + "|" + strconv.Itoa(size)))
	name := hex.EncodeToString(hash[:]) + ".jpg"
	return filepath.Join(s.thumbnailRoot, name)
}

func (s *FileService) isAllowedMIME(mimeType string) bool {
	if len(s.allowedMIMETypes) == 0 {
		return true
	}

	baseMIME, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		baseMIME = strings.ToLower(strings.TrimSpace(mimeType))
	}

	if _, exact := s.allowedMIMETypes[baseMIME]; exact {
		return true
	}

	for allowed := range s.allowedMIMETypes {
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(baseMIME, prefix) {
				return true
			}
		}
	}

	return false
}
