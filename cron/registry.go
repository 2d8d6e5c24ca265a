package cron

import (
	"fmt"
	"sync"

	"github.com/xraph/cronlock"
)

// Registry is the ordered table of job definitions. Definitions are
// accepted until the owning scheduler starts; from then on the table is
// read-only. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []*Definition
	byName map[string]*Definition
	closed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Definition)}
}

// Define registers a job under alias.
func (r *Registry) Define(alias string, p Params) error {
	def, err := newDefinition(alias, p)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %q", cronlock.ErrRegistrationClosed, alias)
	}
	if _, dup := r.byName[alias]; dup {
		return fmt.Errorf("%w: %q", cronlock.ErrDuplicateJob, alias)
	}

	r.order = append(r.order, def)
	r.byName[alias] = def
	return nil
}

// MustDefine is like Define but panics on error. Registration errors are
// programming errors and should stop the application at startup.
func (r *Registry) MustDefine(alias string, p Params) {
	if err := r.Define(alias, p); err != nil {
		panic(err)
	}
}

// Get returns the definition registered under alias.
func (r *Registry) Get(alias string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[alias]
	return def, ok
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Metadata returns the reporting projection of every definition in
// registration order.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, len(r.order))
	for i, def := range r.order {
		out[i] = def.Metadata()
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Closed reports whether registration has been closed.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Registry) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
