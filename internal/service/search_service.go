package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
	"go-file-manager/pkg/apierror"
)

var errMaxResults = errors.New("max results reached")

// SearchService scans the managed tree by name substring, type, and
// extension. Walks are bounded by depth, timeout, and a result cap so a
// huge tree cannot pin the server.
type SearchService struct {
	store      storage.Storage
	maxDepth   int
	timeout    time.Duration
	maxResults int
}

func NewSearchService(store storage.Storage, maxDepth int, timeout time.Duration) *SearchService {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SearchService{store: store, maxDepth: maxDepth, timeout: timeout, maxResults: 1000}
}

func (s *SearchService) Search(ctx context.Context, query string, startPath string, itemType string, extension string, page int, limit int) (model.SearchData, model.Meta, error) {
	query = strings.TrimSpace(query)
	normalizedType := strings.ToLower(strings.TrimSpace(itemType))
	normalizedExt := strings.ToLower(strings.TrimSpace(extension))
	if normalizedExt != "" && !strings.HasPrefix(normalizedExt, ".") {
		normalizedExt = "." + normalizedExt
	}

	if query == "" && normalizedType == "" && normalizedExt == "" {
		return model.SearchData{}, model.Meta{}, apierror.BadRequest("at least one filter is required: q, type, or ext", "q")
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	startAPIPath := normalizeAPIPath(startPath)
	resolvedStart, err := s.store.Resolve(startAPIPath)
	if err != nil {
		return model.SearchData{}, model.Meta{}, err
	}

	if _, err := os.Stat(resolvedStart); err != nil {
		if os.IsNotExist(err) {
			return model.SearchData{}, model.Meta{}, apierror.NotFound("start path not found", startAPIPath)
		}
		return model.SearchData{}, model.Meta{}, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	queryLower := strings.ToLower(query)
	items := make([]model.FileItem, 0)

	walkErr := filepath.WalkDir(resolvedStart, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		select {
		case <-searchCtx.Done():
			return searchCtx.Err()
		default:
		}

		if path == resolvedStart {
			return nil
		}

		if entry.Type()&os.ModeSymlink != 0 {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(resolvedStart, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/") + 1
		if depth > s.maxDepth {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if queryLower != "" && !strings.Contains(strings.ToLower(entry.Name()), queryLower) {
			return nil
		}

		isDir := entry.IsDir()
		if normalizedType == "file" && isDir {
			return nil
		}
		if normalizedType == "directory" && !isDir {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if normalizedExt != "" && normalizedExt != ext {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil
		}

		item := model.FileItem{
			Name:        entry.Name(),
			Path:        toAPIPath(path, s.store.RootAbs()),
			Size:        info.Size(),
			Extension:   ext,
			ModifiedAt:  info.ModTime().UTC(),
			Permissions: info.Mode().String(),
		}

		if isDir {
			item.Type = "directory"
			item.Size = 0
			item.Extension = ""
		} else {
			item.Type = "file"
			item.SizeHuman = humanizeSize(info.Size())
		}

		items = append(items, item)
		if len(items) >= s.maxResults {
			return errMaxResults
		}

		return nil
	})

	if walkErr != nil && !errors.Is(walkErr, context.DeadlineExceeded) && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, errMaxResults) {
		return model.SearchData{}, model.Meta{}, walkErr
	}

	sort.SliceStable(items, func(i int, j int) bool {
		return naturalLess(items[i].Name, items[j].Name)
	})

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	meta := model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
	return model.SearchData{Query: query, Items: items[start:end]}, meta, nil
}
