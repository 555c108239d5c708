package pipeline

import "fmt"

// ErrEmptyBatch indicates a run was requested with no documents.
type ErrEmptyBatch struct{}

func (e *ErrEmptyBatch) Error() string {
	return "batch contains no documents"
}

// ErrRunInProgress indicates a second run was requested while one is in
// flight. Runs are never interleaved for the same batch.
type ErrRunInProgress struct{}

func (e *ErrRunInProgress) Error() string {
	return "a run is already in progress for this batch"
}

// ExtractionError wraps a failure of the extraction collaborator call.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
