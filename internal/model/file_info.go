package model

import "time"

type FileItem struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"size_human,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	Extension    string    `json:"extension,omitempty"`
	PreviewURL   string    `json:"preview_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	IsImage      bool      `json:"is_image,omitempty"`
	Editable     bool      `json:"editable,omitempty"`
	ModifiedAt   time.Time `json:"modified_at"`
	Permissions  string    `json:"permissions"`
	ItemCount    *int      `json:"item_count,omitempty"`
}

type Breadcrumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type DirectoryListData struct {
	CurrentPath string       `json:"current_path"`
	ParentPath  string       `json:"parent_path"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	Items       []FileItem   `json:"items"`
}

type CreateData struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type FileContentData struct {
	Path       string    `json:"path"`
	Content    string    `json:"content"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type TreeNode struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	HasChildren bool       `json:"has_children"`
	ModifiedAt  time.Time  `json:"modified_at"`
	Children    []TreeNode `json:"children,omitempty"`
}

type TreeData struct {
	Path  string     `json:"path"`
	Nodes []TreeNode `json:"nodes"`
}

type StorageStats struct {
	Root       string `json:"root"`
	UsedBytes  int64  `json:"used_bytes"`
	FileCount  int    `json:"file_count"`
	DirCount   int    `json:"dir_count"`
	TrashBytes int64  `json:"trash_bytes"`
}
