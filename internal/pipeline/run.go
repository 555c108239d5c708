// Package pipeline orchestrates one extraction run: collect the batch, call
// the extraction collaborator once, validate, normalize, publish. Every stage
// failure aborts the whole run and moves all documents to error together.
package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mikael/pricebook/internal/batch"
	"github.com/mikael/pricebook/internal/llm"
	"github.com/mikael/pricebook/internal/normalize"
	"github.com/mikael/pricebook/internal/schemas"
	"github.com/mikael/pricebook/internal/types"
	"github.com/mikael/pricebook/internal/validation"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// RunStore persists run records and published results. *db.Store satisfies
// it; persistence stays best effort and a store failure never fails a run.
type RunStore interface {
	CreateRun(ctx context.Context, batchID uuid.UUID, documentCount int) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	SaveResult(ctx context.Context, runID uuid.UUID, result any) error
}

// CancelPolicy decides where documents land when a run is abandoned through
// context cancellation.
type CancelPolicy string

// Cancellation outcomes.
const (
	CancelToPending CancelPolicy = "pending"
	CancelToError   CancelPolicy = "error"
)

// RunOptions holds per-run configuration.
type RunOptions struct {
	OnProgress ProgressCallback
	OnCancel   CancelPolicy // defaults to CancelToPending
}

// Runner executes extraction runs for one batch. It owns the batch's document
// state for the duration of a run; a second Run while one is in flight is
// rejected rather than interleaved.
type Runner struct {
	batch     *batch.Batch
	extractor llm.Extractor
	store     RunStore // nil disables persistence
	log       zerolog.Logger

	inFlight atomic.Bool

	result atomic.Pointer[types.ExtractionResult]
}

// NewRunner creates a runner for the batch. store may be nil; persistence is
// optional and the run proceeds without it.
func NewRunner(b *batch.Batch, extractor llm.Extractor, store RunStore, log zerolog.Logger) *Runner {
	return &Runner{batch: b, extractor: extractor, store: store, log: log}
}

// Batch returns the batch this runner owns.
func (r *Runner) Batch() *batch.Batch {
	return r.batch
}

// Result returns a copy of the last published result, or nil if no run has
// succeeded yet.
func (r *Runner) Result() *types.ExtractionResult {
	return r.result.Load().Clone()
}

// Run executes one extraction run over the batch's documents. Exactly one
// collaborator call is made per run; there are no implicit retries. On any
// failure every document transitions to error and the typed cause is
// returned.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*types.ExtractionResult, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, &ErrRunInProgress{}
	}
	defer r.inFlight.Store(false)

	docs := r.batch.Documents()
	if len(docs) == 0 {
		return nil, &ErrEmptyBatch{}
	}

	if err := r.batch.MarkProcessing(); err != nil {
		return nil, &ErrRunInProgress{}
	}

	runID := r.persistRunStart(ctx, len(docs))
	emit(opts, ProgressEvent{Step: "extract", Message: "calling extraction collaborator", RunID: runID})

	raw, err := r.extractor.Extract(ctx, docs, schemas.Describe())
	if err != nil {
		if ctx.Err() != nil && opts.OnCancel != CancelToError {
			// Abandoned run: hand the documents back for resubmission.
			r.batch.Reset()
			r.persistRunEnd(runID, "cancelled")
			return nil, &ExtractionError{Cause: err}
		}
		r.fail(opts, runID, "extract", err)
		return nil, &ExtractionError{Cause: err}
	}

	emit(opts, ProgressEvent{Step: "validate", Message: "validating candidate against schema contract", RunID: runID})
	validated, err := validation.ValidateCandidate(raw)
	if err != nil {
		r.fail(opts, runID, "validate", err)
		return nil, err
	}

	emit(opts, ProgressEvent{Step: "normalize", Message: "applying pricing policies", RunID: runID})
	result, err := normalize.Normalize(validated)
	if err != nil {
		r.fail(opts, runID, "normalize", err)
		return nil, err
	}

	r.batch.MarkCompleted()
	r.result.Store(result.Clone())
	r.persistResult(runID, result)

	emit(opts, ProgressEvent{Step: "publish", Message: "extraction result published", RunID: runID, Content: result})
	r.log.Info().
		Str("batch_id", r.batch.ID().String()).
		Int("documents", len(docs)).
		Int("resorts", result.TotalResorts()).
		Msg("run completed")

	return result, nil
}

// fail applies the all-or-nothing rule: the whole batch moves to error.
func (r *Runner) fail(opts RunOptions, runID, step string, cause error) {
	r.batch.MarkError()
	r.persistRunEnd(runID, "failed")
	emit(opts, ProgressEvent{Step: step, Message: cause.Error(), RunID: runID})
	r.log.Error().
		Str("batch_id", r.batch.ID().String()).
		Str("step", step).
		Err(cause).
		Msg("run failed")
}

func (r *Runner) persistRunStart(ctx context.Context, docCount int) string {
	if r.store == nil {
		return ""
	}
	runID, err := r.store.CreateRun(ctx, r.batch.ID(), docCount)
	if err != nil {
		// Skip persistence for this run only; the store may recover.
		r.log.Warn().Err(err).Msg("failed to persist run start; continuing without persistence")
		return ""
	}
	return runID.String()
}

func (r *Runner) persistRunEnd(runID, status string) {
	if r.store == nil || runID == "" {
		return
	}
	// Persistence failures never fail the run itself.
	id, err := uuid.Parse(runID)
	if err != nil {
		return
	}
	if err := r.store.CompleteRun(context.Background(), id, status); err != nil {
		r.log.Warn().Err(err).Msg("failed to persist run status")
	}
}

func (r *Runner) persistResult(runID string, result *types.ExtractionResult) {
	if r.store == nil || runID == "" {
		return
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return
	}
	ctx := context.Background()
	if err := r.store.SaveResult(ctx, id, result); err != nil {
		r.log.Warn().Err(err).Msg("failed to persist extraction result")
	}
	if err := r.store.CompleteRun(ctx, id, "completed"); err != nil {
		r.log.Warn().Err(err).Msg("failed to persist run status")
	}
}

func emit(opts RunOptions, event ProgressEvent) {
	if opts.OnProgress != nil {
		opts.OnProgress(event)
	}
}
