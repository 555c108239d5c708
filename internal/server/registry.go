package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mikael/pricebook/internal/batch"
	"github.com/mikael/pricebook/internal/db"
	"github.com/mikael/pricebook/internal/llm"
	"github.com/mikael/pricebook/internal/pipeline"
)

// registry holds the live batches served by this process. Each batch gets its
// own runner; there is no global singleton batch.
type registry struct {
	mu      sync.RWMutex
	runners map[uuid.UUID]*pipeline.Runner

	extractor llm.Extractor
	store     *db.Store
	log       zerolog.Logger
}

func newRegistry(extractor llm.Extractor, store *db.Store, log zerolog.Logger) *registry {
	return &registry{
		runners:   make(map[uuid.UUID]*pipeline.Runner),
		extractor: extractor,
		store:     store,
		log:       log,
	}
}

// create registers a new empty batch and returns its runner.
func (r *registry) create() *pipeline.Runner {
	b := batch.New()
	// A typed nil *db.Store must not reach the runner's interface field.
	var store pipeline.RunStore
	if r.store != nil {
		store = r.store
	}
	runner := pipeline.NewRunner(b, r.extractor, store, r.log)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[b.ID()] = runner
	return runner
}

// get looks up the runner owning the batch.
func (r *registry) get(id uuid.UUID) (*pipeline.Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[id]
	if !ok {
		return nil, &ErrBatchNotFound{ID: id}
	}
	return runner, nil
}

// remove drops a batch from the registry.
func (r *registry) remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runners[id]; !ok {
		return &ErrBatchNotFound{ID: id}
	}
	delete(r.runners, id)
	return nil
}
