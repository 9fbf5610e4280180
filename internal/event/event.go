package event

type Type string

const (
	TypeFileCreated    Type = "file.created"
	TypeFileUploaded   Type = "file.uploaded"
	TypeFileSaved      Type = "file.saved"
	TypeFileRenamed    Type = "file.renamed"
	TypeFileMoved      Type = "file.moved"
	TypeFileTrashed    Type = "file.trashed"
	TypeFileRestored   Type = "file.restored"
	TypeFilePurged     Type = "file.purged"
	TypeDirCreated     Type = "dir.created"
	TypeArchiveCreated Type = "archive.created"
	TypeArchiveExtract Type = "archive.extracted"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
