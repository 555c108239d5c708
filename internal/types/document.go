package types

import "github.com/google/uuid"

// DocumentState is the lifecycle state of one uploaded source document.
type DocumentState string

// Document lifecycle states. Transitions are batch-wide and atomic: either
// every document in a run reaches completed or every document reaches error.
const (
	DocumentPending    DocumentState = "pending"
	DocumentProcessing DocumentState = "processing"
	DocumentCompleted  DocumentState = "completed"
	DocumentError      DocumentState = "error"
)

// BatchState is the aggregate state derived from the documents in a batch.
type BatchState string

// Aggregate batch states. These are computed, never stored independently.
const (
	BatchIdle    BatchState = "idle"
	BatchRunning BatchState = "running"
	BatchDone    BatchState = "done"
	BatchFailed  BatchState = "failed"
)

// Document is one uploaded source file. The ID is generated at ingestion and
// is not derived from content; the batch that ingested a document owns it.
type Document struct {
	ID       uuid.UUID     `json:"id"`
	Filename string        `json:"filename"`
	MIMEType string        `json:"mime_type"`
	Content  []byte        `json:"-"`
	State    DocumentState `json:"state"`
}

// NewDocument creates a pending document with a fresh identifier.
func NewDocument(filename, mimeType string, content []byte) Document {
	return Document{
		ID:       uuid.New(),
		Filename: filename,
		MIMEType: mimeType,
		Content:  content,
		State:    DocumentPending,
	}
}
