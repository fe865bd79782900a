package wizard

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"telematic/internal/storage"
)

// ErrDraftNotFound is returned for unknown or already discarded drafts.
var ErrDraftNotFound = errors.New("draft not found")

// Registry tracks in-progress drafts by an opaque handle so the flow
// survives across requests. Abandoned drafts are simply discarded; any
// operation still in flight completes in the background with no further
// effect on the flow.
type Registry struct {
	mu     sync.Mutex
	drafts map[string]*Draft

	creator   Creator
	store     storage.ObjectStore
	onCreated func(id string)
}

// NewRegistry creates an empty registry sharing one creator and store
// across all drafts.
func NewRegistry(creator Creator, store storage.ObjectStore, onCreated func(id string)) *Registry {
	return &Registry{
		drafts:    make(map[string]*Draft),
		creator:   creator,
		store:     store,
		onCreated: onCreated,
	}
}

// Start opens a new flow and returns its handle.
func (r *Registry) Start() (string, *Draft) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	d := NewDraft(r.creator, r.store, r.onCreated)
	r.drafts[id] = d
	return id, d
}

// Get resolves a handle to its draft.
func (r *Registry) Get(id string) (*Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// Discard drops a draft. Safe to call for unknown handles.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
}

// Len returns the number of live drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
