// Package batch tracks the documents of one extraction batch through their
// lifecycle. State transitions are batch-wide and atomic: a run either moves
// every document to completed or every document to error, because resort
// merging needs the whole batch and partial completion is disallowed.
package batch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mikael/pricebook/internal/types"
)

// ErrDocumentNotFound indicates the document is not part of this batch.
type ErrDocumentNotFound struct {
	ID uuid.UUID
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found in batch: %s", e.ID)
}

// ErrNotRemovable indicates a removal attempt outside the pending state.
type ErrNotRemovable struct {
	ID    uuid.UUID
	State types.DocumentState
}

func (e *ErrNotRemovable) Error() string {
	return fmt.Sprintf("document %s cannot be removed while %s", e.ID, e.State)
}

// ErrBatchBusy indicates a transition attempted while documents are mid-run.
type ErrBatchBusy struct{}

func (e *ErrBatchBusy) Error() string {
	return "batch has documents in processing state"
}

// Batch owns an ordered document collection and its lifecycle state. Each
// batch is an explicit, independently constructible context; only the batch
// itself and the pipeline mutate document state.
type Batch struct {
	id uuid.UUID

	mu   sync.Mutex
	docs []types.Document
}

// New creates an empty batch.
func New() *Batch {
	return &Batch{id: uuid.New()}
}

// ID returns the batch identifier.
func (b *Batch) ID() uuid.UUID {
	return b.id
}

// Add ingests a document into the batch in the pending state and returns the
// stored document (with its generated ID). Ingestion is rejected while a run
// holds the batch: a document joining mid-run would be stamped completed by
// the batch-wide transition without ever being extracted.
func (b *Batch) Add(filename, mimeType string, content []byte) (types.Document, error) {
	doc := types.NewDocument(filename, mimeType, content)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anyProcessing() {
		return types.Document{}, &ErrBatchBusy{}
	}
	b.docs = append(b.docs, doc)
	return doc, nil
}

// AddDocument ingests an already-constructed document, resetting it to
// pending. Like Add, it is rejected while documents are mid-run.
func (b *Batch) AddDocument(doc types.Document) error {
	doc.State = types.DocumentPending
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anyProcessing() {
		return &ErrBatchBusy{}
	}
	b.docs = append(b.docs, doc)
	return nil
}

// Remove removes a document from the batch. Removal is only permitted while
// the document is pending.
func (b *Batch) Remove(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, doc := range b.docs {
		if doc.ID != id {
			continue
		}
		if doc.State != types.DocumentPending {
			return &ErrNotRemovable{ID: id, State: doc.State}
		}
		b.docs = append(b.docs[:i], b.docs[i+1:]...)
		return nil
	}
	return &ErrDocumentNotFound{ID: id}
}

// Documents returns a snapshot of the batch's documents in ingestion order.
func (b *Batch) Documents() []types.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Document(nil), b.docs...)
}

// Len returns the number of documents in the batch.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.docs)
}

// State derives the aggregate batch state from the documents. It is computed
// on demand, never stored.
func (b *Batch) State() types.BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.docs) == 0 {
		return types.BatchIdle
	}

	allPending, allCompleted := true, true
	for _, doc := range b.docs {
		switch doc.State {
		case types.DocumentProcessing:
			return types.BatchRunning
		case types.DocumentError:
			return types.BatchFailed
		case types.DocumentPending:
			allCompleted = false
		case types.DocumentCompleted:
			allPending = false
		}
	}
	if allPending {
		return types.BatchIdle
	}
	if allCompleted {
		return types.BatchDone
	}
	// Mixed pending/completed only happens when documents were added after a
	// successful run; the batch is idle until the next run.
	return types.BatchIdle
}

// MarkProcessing transitions every document to processing atomically. It
// fails if any document is already mid-run.
func (b *Batch) MarkProcessing() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anyProcessing() {
		return &ErrBatchBusy{}
	}
	b.setAll(types.DocumentProcessing)
	return nil
}

// anyProcessing reports whether a run currently holds the batch. Callers must
// hold b.mu.
func (b *Batch) anyProcessing() bool {
	for _, doc := range b.docs {
		if doc.State == types.DocumentProcessing {
			return true
		}
	}
	return false
}

// MarkCompleted transitions every document to completed atomically.
func (b *Batch) MarkCompleted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setAll(types.DocumentCompleted)
}

// MarkError transitions every document to the terminal error state atomically.
func (b *Batch) MarkError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setAll(types.DocumentError)
}

// Reset returns every document to pending so a failed or abandoned batch can
// be resubmitted.
func (b *Batch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setAll(types.DocumentPending)
}

func (b *Batch) setAll(state types.DocumentState) {
	for i := range b.docs {
		b.docs[i].State = state
	}
}
