package model

// TrashRecord represents a soft-deleted file/directory tracked in the trash
// index. The record's ID, not the original name, keys the item inside the
// trash storage area, so same-named deletions never collide.
type TrashRecord struct {
	ID           string `json:"id"`
	OriginalPath string `json:"original_path"`
	OriginalKind string `json:"original_kind"`
	SizeBytes    int64  `json:"size_bytes"`
	DeletedAt    string `json:"deleted_at"`
	DeletedBy    Actor  `json:"deleted_by"`
}

type TrashCleanupData struct {
	DeletedCount   int `json:"deleted_count"`
	RemainingCount int `json:"remaining_count"`
}
