package model

type CreateRequest struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type SaveRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type RenameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`
}

type MoveRequest struct {
	Sources     []string `json:"sources"`
	Destination string   `json:"destination"`
	OnConflict  string   `json:"on_conflict,omitempty"`
}

type DeleteRequest struct {
	Paths []string `json:"paths"`
	Path  string   `json:"path,omitempty"`
}

type RestoreRequest struct {
	TrashID string `json:"trash_id"`
}

type CompressRequest struct {
	Sources     []string `json:"sources"`
	Destination string   `json:"destination"`
	Name        string   `json:"name"`
}

type ExtractRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type CleanupRequest struct {
	Days int `json:"days"`
}
