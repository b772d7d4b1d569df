package bridge

import (
	"context"
	"sync"
	"sync/atomic"
)

// Registry is the buffer lifecycle manager for foreign-decoded meshes. It
// is an explicit per-loader object, not a process-wide singleton, so
// independent loader instances cannot interfere with each other.
//
// Entries are added only by successful foreign decodes and removed only by
// Release. No two foreign decodes run concurrently in this design, so the
// table needs no locking beyond the atomic generation counter; the mutex
// guards against release racing a registration from a superseding load.
type Registry struct {
	gen atomic.Uint64

	mu      sync.Mutex
	entries map[uint64]func(context.Context)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uint64]func(context.Context)),
	}
}

// Next allocates a fresh generation id. Generations increase monotonically
// and are never reused.
func (r *Registry) Next() uint64 {
	return r.gen.Add(1)
}

// Register records the release operation for a successfully decoded
// generation.
func (r *Registry) Register(generation uint64, release func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[generation] = release
}

// Release retires the registration for a generation and runs its release
// operation. It never returns an error and tolerates unknown or
// already-released generations as a no-op, so double release is safe.
func (r *Registry) Release(ctx context.Context, generation uint64) {
	r.mu.Lock()
	release, ok := r.entries[generation]
	if ok {
		delete(r.entries, generation)
	}
	r.mu.Unlock()

	if ok && release != nil {
		release(ctx)
	}
}

// Active returns the number of live registrations.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ReleaseAll retires every live registration. Called at session end.
func (r *Registry) ReleaseAll(ctx context.Context) {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[uint64]func(context.Context))
	r.mu.Unlock()

	for _, release := range entries {
		if release != nil {
			release(ctx)
		}
	}
}
