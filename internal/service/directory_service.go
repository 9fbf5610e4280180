package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"go-file-manager/internal/event"
	"go-file-manager/internal/model"
	"go-file-manager/internal/storage"
	"go-file-manager/internal/util"
	"go-file-manager/pkg/apierror"
)

type DirectoryService struct {
	store    storage.Storage
	activity *ActivityService
	bus      event.Bus
}

func NewDirectoryService(store storage.Storage, activity *ActivityService, bus event.Bus) *DirectoryService {
	return &DirectoryService{store: store, activity: activity, bus: bus}
}

func (s *DirectoryService) List(_ context.Context, requestedPath string, page int, limit int, sortBy string, order string) (model.DirectoryListData, model.Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	resolved, err := s.store.Resolve(requestedPath)
	if err != nil {
		return model.DirectoryListData{}, model.Meta{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DirectoryListData{}, model.Meta{}, apierror.NotFound("directory not found", normalizeAPIPath(requestedPath))
		}
		return model.DirectoryListData{}, model.Meta{}, err
	}
	if !info.IsDir() {
		return model.DirectoryListData{}, model.Meta{}, apierror.BadRequest("path is not a directory", normalizeAPIPath(requestedPath))
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return model.DirectoryListData{}, model.Meta{}, err
	}

	items := make([]model.FileItem, 0, len(entries))
	for _, entry := range entries {
		// Symlinks may point outside the managed root; they are not listed.
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		entryInfo, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		items = append(items, s.buildItem(resolved, entry.Name(), entryInfo))
	}

	sortDirectoryItems(items, sortBy, order)

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	currentPath := normalizeAPIPath(requestedPath)
	parentPath := "/"
	if currentPath != "/" {
		parentPath = normalizeAPIPath(filepath.Dir(currentPath))
	}

	data := model.DirectoryListData{
		CurrentPath: currentPath,
		ParentPath:  parentPath,
		Breadcrumbs: breadcrumbsFor(currentPath),
		Items:       items[start:end],
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	meta := model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
	return data, meta, nil
}

// CreateFolder creates a single directory. The parent must already exist;
// missing ancestors are reported, never created implicitly.
func (s *DirectoryService) CreateFolder(_ context.Context, basePath string, name string, actor model.Actor) (model.CreateData, error) {
	safeName, err := util.ValidateFilename(name)
	if err != nil {
		s.activity.Log("create_folder", actor, "failed", normalizeAPIPath(basePath), "directory", map[string]any{"name": name}, err.Error())
		return model.CreateData{}, err
	}

	fullPath := normalizeAPIPath(filepath.Join(normalizeAPIPath(basePath), safeName))

	if _, statErr := s.store.Stat(fullPath); statErr == nil {
		err := apierror.Conflict("directory already exists", fullPath)
		s.activity.Log("create_folder", actor, "failed", fullPath, "directory", nil, err.Error())
		return model.CreateData{}, err
	}

	if mkErr := s.store.Mkdir(fullPath, 0o755); mkErr != nil {
		if os.IsNotExist(mkErr) {
			err := apierror.NotFound("parent directory does not exist", normalizeAPIPath(basePath))
			s.activity.Log("create_folder", actor, "failed", fullPath, "directory", nil, err.Error())
			return model.CreateData{}, err
		}
		s.activity.Log("create_folder", actor, "failed", fullPath, "directory", nil, mkErr.Error())
		return model.CreateData{}, mkErr
	}

	data := model.CreateData{
		Name:      safeName,
		Path:      fullPath,
		Type:      "directory",
		CreatedAt: time.Now().UTC(),
	}

	s.activity.Log("create_folder", actor, "success", fullPath, "directory", nil, "")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeDirCreated, Payload: data})
	}

	return data, nil
}

// Tree returns the directory skeleton below a path, depth-limited.
func (s *DirectoryService) Tree(_ context.Context, requestedPath string, depth int) (model.TreeData, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > 10 {
		depth = 10
	}

	resolved, err := s.store.Resolve(requestedPath)
	if err != nil {
		return model.TreeData{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TreeData{}, apierror.NotFound("directory not found", normalizeAPIPath(requestedPath))
		}
		return model.TreeData{}, err
	}
	if !info.IsDir() {
		return model.TreeData{}, apierror.BadRequest("path is not a directory", normalizeAPIPath(requestedPath))
	}

	nodes := s.treeLevel(resolved, depth)
	return model.TreeData{Path: normalizeAPIPath(requestedPath), Nodes: nodes}, nil
}

func (s *DirectoryService) treeLevel(resolved string, depth int) []model.TreeNode {
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil
	}

	nodes := make([]model.TreeNode, 0)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		entryInfo, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		childAbs := filepath.Join(resolved, entry.Name())
		node := model.TreeNode{
			Name:       entry.Name(),
			Path:       toAPIPath(childAbs, s.store.RootAbs()),
			Type:       "directory",
			ModifiedAt: entryInfo.ModTime().UTC(),
		}

		if children, childErr := os.ReadDir(childAbs); childErr == nil {
			for _, child := range children {
				if child.IsDir() {
					node.HasChildren = true
					break
				}
			}
		}

		if depth > 1 {
			node.Children = s.treeLevel(childAbs, depth-1)
		}

		nodes = append(nodes, node)
	}

	sort.SliceStable(nodes, func(i int, j int) bool {
		return naturalLess(nodes[i].Name, nodes[j].Name)
	})
	return nodes
}

// Stats walks the managed root and reports usage totals.
func (s *DirectoryService) Stats(_ context.Context, trashBytes int64) model.StorageStats {
	stats := model.StorageStats{Root: "/", TrashBytes: trashBytes}

	_ = filepath.WalkDir(s.store.RootAbs(), func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if current == s.store.RootAbs() {
			return nil
		}
		if entry.Type()&os.ModeSymlink != 0 {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			stats.DirCount++
			return nil
		}

		stats.FileCount++
		if info, err := entry.Info(); err == nil {
			stats.UsedBytes += info.Size()
		}
		return nil
	})

	return stats
}

func (s *DirectoryService) buildItem(parentResolved string, name string, info os.FileInfo) model.FileItem {
	apiPath := toAPIPath(filepath.Join(parentResolved, name), s.store.RootAbs())
	item := model.FileItem{
		Name:        name,
		Path:        apiPath,
		Permissions: info.Mode().String(),
		ModifiedAt:  info.ModTime().UTC(),
	}

	if info.IsDir() {
		item.Type = "directory"
		item.Size = 0
		if children, err := os.ReadDir(filepath.Join(parentResolved, name)); err == nil {
			count := len(children)
			item.ItemCount = &count
		}
		return item
	}

	item.Type = "file"
	item.Size = info.Size()
	item.SizeHuman = humanizeSize(info.Size())
	item.Extension = strings.ToLower(filepath.Ext(name))
	return item
}

// sortDirectoryItems orders directories before files, then by the requested
// field. Name ordering is natural: "file2" sorts before "file10".
func sortDirectoryItems(items []model.FileItem, sortBy string, order string) {
	field := strings.ToLower(strings.TrimSpace(sortBy))
	if field == "" {
		field = "name"
	}

	ascending := strings.ToLower(strings.TrimSpace(order)) != "desc"

	less := func(i int, j int) bool {
		switch field {
		case "size":
			return items[i].Size < items[j].Size
		case "modified_at":
			return items[i].ModifiedAt.Before(items[j].ModifiedAt)
		default:
			return naturalLess(items[i].Name, items[j].Name)
		}
	}

	sort.SliceStable(items, func(i int, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == "directory"
		}
		if ascending {
			return less(i, j)
		}
		return less(j, i)
	})
}

// naturalLess compares case-insensitively, treating digit runs as numbers.
func naturalLess(a string, b string) bool {
	ar := []rune(strings.ToLower(a))
	br := []rune(strings.ToLower(b))

	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			iStart, jStart := i, j
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}

			aNum := strings.TrimLeft(string(ar[iStart:i]), "0")
			bNum := strings.TrimLeft(string(br[jStart:j]), "0")
			if len(aNum) != len(bNum) {
				return len(aNum) < len(bNum)
			}
			if aNum != bNum {
				return aNum < bNum
			}
			continue
		}

		if ar[i] != br[j] {
			return ar[i] < br[j]
		}
		i++
		j++
	}

	return len(ar)-i < len(br)-j
}
