// Package server provides the HTTP REST API for the pricing extraction service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/mikael/pricebook/internal/batch"
	"github.com/mikael/pricebook/internal/normalize"
	"github.com/mikael/pricebook/internal/pipeline"
	"github.com/mikael/pricebook/internal/validation"
)

// ErrBatchNotFound indicates the batch ID is not registered.
type ErrBatchNotFound struct {
	ID uuid.UUID
}

func (e *ErrBatchNotFound) Error() string {
	return fmt.Sprintf("batch not found: %s", e.ID)
}

// ErrNoResult indicates a result was requested before any successful run.
type ErrNoResult struct {
	ID uuid.UUID
}

func (e *ErrNoResult) Error() string {
	return fmt.Sprintf("batch %s has no published result", e.ID)
}

// ErrRequest indicates request validation failure.
type ErrRequest struct {
	Field   string
	Message string
}

func (e *ErrRequest) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// ErrorKind names the error taxonomy entry for an error so callers can
// display it and decide whether a reset-and-retry makes sense.
func ErrorKind(err error) string {
	var (
		notFound     *ErrBatchNotFound
		noResult     *ErrNoResult
		request      *ErrRequest
		docMissing   *batch.ErrDocumentNotFound
		notRemovable *batch.ErrNotRemovable
		busy         *batch.ErrBatchBusy
		emptyBatch   *pipeline.ErrEmptyBatch
		inProgress   *pipeline.ErrRunInProgress
		extraction   *pipeline.ExtractionError
		invalid      *validation.Error
		conflict     *normalize.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		return "BatchNotFound"
	case errors.As(err, &busy):
		return "BatchBusy"
	case errors.As(err, &noResult):
		return "NoResult"
	case errors.As(err, &request):
		return "InvalidRequest"
	case errors.As(err, &docMissing):
		return "DocumentNotFound"
	case errors.As(err, &notRemovable):
		return "DocumentNotRemovable"
	case errors.As(err, &emptyBatch):
		return "EmptyBatch"
	case errors.As(err, &inProgress):
		return "RunAlreadyInProgress"
	case errors.As(err, &extraction):
		return "ExtractionError"
	case errors.As(err, &invalid):
		return fmt.Sprintf("ValidationError.%s", invalid.Kind)
	case errors.As(err, &conflict):
		return "NormalizationConflict"
	default:
		return "InternalError"
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound     *ErrBatchNotFound
		noResult     *ErrNoResult
		request      *ErrRequest
		docMissing   *batch.ErrDocumentNotFound
		notRemovable *batch.ErrNotRemovable
		busy         *batch.ErrBatchBusy
		emptyBatch   *pipeline.ErrEmptyBatch
		inProgress   *pipeline.ErrRunInProgress
		extraction   *pipeline.ExtractionError
		invalid      *validation.Error
		conflict     *normalize.ConflictError
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &docMissing), errors.As(err, &noResult):
		return http.StatusNotFound
	case errors.As(err, &request), errors.As(err, &emptyBatch):
		return http.StatusBadRequest
	case errors.As(err, &inProgress), errors.As(err, &notRemovable), errors.As(err, &busy):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &conflict):
		return http.StatusUnprocessableEntity
	case errors.As(err, &extraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
