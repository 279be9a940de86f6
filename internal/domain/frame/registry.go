package frame

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

var (
	ErrWindowNotFound = errors.New("window not found")
	ErrWindowExists   = errors.New("window already registered")
)

// Registry tracks the host windows known to the service
type Registry struct {
	mu      sync.RWMutex
	windows map[id.WindowID]Window
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{windows: make(map[id.WindowID]Window)}
}

// Register adds w
func (r *Registry) Register(w Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.windows[w.ID()]; exists {
		return ErrWindowExists
	}
	r.windows[w.ID()] = w
	return nil
}

// Get looks up a window by ID
func (r *Registry) Get(wid id.WindowID) (Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[wid]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return w, nil
}

// Remove unregisters a window and reports whether it was present
func (r *Registry) Remove(wid id.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[wid]; !ok {
		return false
	}
	delete(r.windows, wid)
	return true
}

// Count returns the number of registered windows
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}
