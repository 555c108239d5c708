package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikael/pricebook/internal/batch"
	"github.com/mikael/pricebook/internal/schemas"
	"github.com/mikael/pricebook/internal/types"
	"github.com/mikael/pricebook/internal/validation"
)

const validPayload = `{
	"locations": [
		{
			"name": "Maldives",
			"resorts": [
				{
					"resortName": "Coral Atoll",
					"currency": "USD",
					"locationType": "Component",
					"rooms": [{"type": "Beach Villa", "price": 450}],
					"activities": [{"name": "Snorkeling Trip", "price": 80, "isIncluded": false}]
				}
			]
		}
	]
}`

// fakeExtractor stands in for the extraction collaborator.
type fakeExtractor struct {
	payload []byte
	err     error

	mu    sync.Mutex
	calls int

	block chan struct{} // when set, Extract waits for close or ctx
}

func (f *fakeExtractor) Extract(ctx context.Context, _ []types.Document, _ schemas.ExtractionSchema) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.payload, f.err
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore records persistence calls and can fail CreateRun on demand.
type fakeStore struct {
	mu            sync.Mutex
	createErr     error
	createCalls   int
	saveCalls     int
	completeCalls int
}

func (f *fakeStore) CreateRun(_ context.Context, _ uuid.UUID, _ int) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	return uuid.New(), nil
}

func (f *fakeStore) CompleteRun(_ context.Context, _ uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	return nil
}

func (f *fakeStore) SaveResult(_ context.Context, _ uuid.UUID, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	return nil
}

func newTestRunner(t *testing.T, extractor *fakeExtractor, docs int) *Runner {
	t.Helper()
	b := batch.New()
	for i := 0; i < docs; i++ {
		_, err := b.Add("prices.pdf", "application/pdf", []byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	return NewRunner(b, extractor, nil, zerolog.Nop())
}

func TestRunner_Run(t *testing.T) {
	extractor := &fakeExtractor{payload: []byte(validPayload)}
	runner := newTestRunner(t, extractor,2)

	result, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.Locations, 1)
	assert.Equal(t, "Maldives", result.Locations[0].Name)

	assert.Equal(t, 1, extractor.callCount(), "exactly one collaborator call per run")
	assert.Equal(t, types.BatchDone, runner.Batch().State())
	assert.NotNil(t, runner.Result())
}

func TestRunner_RunEmptyBatch(t *testing.T) {
	runner := newTestRunner(t, &fakeExtractor{payload: []byte(validPayload)}, 0)

	_, err := runner.Run(context.Background(), RunOptions{})
	var empty *ErrEmptyBatch
	assert.ErrorAs(t, err, &empty)
	assert.Equal(t, types.BatchIdle, runner.Batch().State())
}

func TestRunner_ExtractionFailureMovesAllDocumentsToError(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("model unavailable")}
	runner := newTestRunner(t, extractor,3)

	_, err := runner.Run(context.Background(), RunOptions{})
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)

	assert.Equal(t, types.BatchFailed, runner.Batch().State())
	for _, doc := range runner.Batch().Documents() {
		assert.Equal(t, types.DocumentError, doc.State)
	}
	assert.Nil(t, runner.Result())
}

func TestRunner_InvalidCandidateFailsRun(t *testing.T) {
	extractor := &fakeExtractor{payload: []byte(`{"locations": "nope"}`)}
	runner := newTestRunner(t, extractor,1)

	_, err := runner.Run(context.Background(), RunOptions{})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, types.BatchFailed, runner.Batch().State())
}

func TestRunner_RejectsConcurrentRun(t *testing.T) {
	block := make(chan struct{})
	extractor := &fakeExtractor{payload: []byte(validPayload), block: block}
	runner := newTestRunner(t, extractor,1)

	firstDone := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background(), RunOptions{})
		firstDone <- err
	}()

	// Wait until the first run is inside the collaborator call.
	require.Eventually(t, func() bool {
		return extractor.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	_, err := runner.Run(context.Background(), RunOptions{})
	var inProgress *ErrRunInProgress
	assert.ErrorAs(t, err, &inProgress)

	close(block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, extractor.callCount(), "rejected run must not call the collaborator")
}

func TestRunner_DocumentsCannotJoinMidRun(t *testing.T) {
	block := make(chan struct{})
	extractor := &fakeExtractor{payload: []byte(validPayload), block: block}
	runner := newTestRunner(t, extractor, 1)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background(), RunOptions{})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return extractor.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A document arriving mid-run is rejected; it would otherwise be stamped
	// completed without ever reaching the collaborator.
	_, err := runner.Batch().Add("late.pdf", "application/pdf", []byte("late"))
	var busy *batch.ErrBatchBusy
	require.ErrorAs(t, err, &busy)

	close(block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, extractor.callCount())
	docs := runner.Batch().Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, types.DocumentCompleted, docs[0].State)
}

func TestRunner_PersistenceRecoversAfterTransientFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	extractor := &fakeExtractor{payload: []byte(validPayload)}
	b := batch.New()
	_, err := b.Add("prices.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	runner := NewRunner(b, extractor, store, zerolog.Nop())

	// First run: the store is down, the run still succeeds unpersisted.
	_, err = runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 0, store.saveCalls)

	// Second run: the store is back and persistence resumes.
	store.createErr = nil
	runner.Batch().Reset()
	_, err = runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.createCalls)
	assert.Equal(t, 1, store.saveCalls)
}

func TestRunner_CancelReturnsDocumentsToPending(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	extractor := &fakeExtractor{payload: []byte(validPayload), block: block}
	runner := newTestRunner(t, extractor,2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(ctx, RunOptions{})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return extractor.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	var exErr *ExtractionError
	require.ErrorAs(t, <-done, &exErr)
	assert.Equal(t, types.BatchIdle, runner.Batch().State())
	for _, doc := range runner.Batch().Documents() {
		assert.Equal(t, types.DocumentPending, doc.State)
	}
}

func TestRunner_CancelToErrorPolicy(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	extractor := &fakeExtractor{payload: []byte(validPayload), block: block}
	runner := newTestRunner(t, extractor,1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(ctx, RunOptions{OnCancel: CancelToError})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return extractor.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	require.Error(t, <-done)
	assert.Equal(t, types.BatchFailed, runner.Batch().State())
}

func TestRunner_ResultIsImmutableCopy(t *testing.T) {
	extractor := &fakeExtractor{payload: []byte(validPayload)}
	runner := newTestRunner(t, extractor,1)

	_, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	first := runner.Result()
	first.Locations[0].Name = "Mutated"

	second := runner.Result()
	assert.Equal(t, "Maldives", second.Locations[0].Name)
}

func TestRunner_NewRunReplacesResultWholesale(t *testing.T) {
	extractor := &fakeExtractor{payload: []byte(validPayload)}
	runner := newTestRunner(t, extractor,1)

	_, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	extractor.payload = []byte(`{
		"locations": [{"name": "Fiji", "resorts": [
			{"resortName": "Lagoon Lodge", "currency": "FJD", "locationType": "Bundle",
			 "rooms": [{"type": "Bure", "price": 300}], "activities": []}
		]}]
	}`)
	runner.Batch().Reset()

	_, err = runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	result := runner.Result()
	require.Len(t, result.Locations, 1)
	assert.Equal(t, "Fiji", result.Locations[0].Name)
}

func TestRunner_ProgressEvents(t *testing.T) {
	extractor := &fakeExtractor{payload: []byte(validPayload)}
	runner := newTestRunner(t, extractor,1)

	var steps []string
	_, err := runner.Run(context.Background(), RunOptions{
		OnProgress: func(event ProgressEvent) {
			steps = append(steps, event.Step)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"extract", "validate", "normalize", "publish"}, steps)
}

func TestRunner_FailedRunRetriesAfterReset(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("model unavailable")}
	runner := newTestRunner(t, extractor,1)

	_, err := runner.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, types.BatchFailed, runner.Batch().State())

	runner.Batch().Reset()
	extractor.err = nil
	extractor.payload = []byte(validPayload)

	result, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, extractor.callCount())
}
