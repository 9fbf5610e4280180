package model

// Actor identifies the client behind a request for activity records.
type Actor struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ActivityEntry is one immutable line in the append-only activity log.
type ActivityEntry struct {
	Action     string         `json:"action"`
	OccurredAt string         `json:"occurred_at"`
	Actor      Actor          `json:"actor"`
	Status     string         `json:"status"`
	TargetPath string         `json:"target_path,omitempty"`
	TargetType string         `json:"target_type,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ActivityQuery filters and paginates log reads. Sorting is by occurred_at
// unless SortBy names another field.
type ActivityQuery struct {
	Action     string
	TargetType string
	Path       string
	IP         string
	From       string
	To         string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

type ActivityListData struct {
	Items []ActivityEntry `json:"items"`
}

type ActivityCleanupData struct {
	DeletedCount   int `json:"deleted_count"`
	RemainingCount int `json:"remaining_count"`
}
