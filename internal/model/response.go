package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type UploadItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type UploadResponse struct {
	Uploaded []UploadItem    `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

type RenameResponse struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Name    string `json:"name"`
}

type MoveResult struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveFailure struct {
	From   string `json:"from"`
	Reason string `json:"reason"`
}

type MoveResponse struct {
	Moved  []MoveResult  `json:"moved"`
	Failed []MoveFailure `json:"failed"`
}

type DeleteFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type DeleteResponse struct {
	Deleted []TrashRecord   `json:"deleted"`
	Failed  []DeleteFailure `json:"failed"`
}

type CompressResponse struct {
	Archive FileItem `json:"archive"`
	Entries int      `json:"entries"`
}

type ExtractFailure struct {
	Entry  string `json:"entry"`
	Reason string `json:"reason"`
}

type ExtractResponse struct {
	Extracted []string         `json:"extracted"`
	Rejected  []ExtractFailure `json:"rejected"`
}

type ArchiveEntry struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Compressed int64  `json:"compressed"`
	IsDir      bool   `json:"is_dir"`
}

type ArchiveListData struct {
	Path    string         `json:"path"`
	Entries []ArchiveEntry `json:"entries"`
}

type SearchData struct {
	Query string     `json:"query"`
	Items []FileItem `json:"items"`
}
