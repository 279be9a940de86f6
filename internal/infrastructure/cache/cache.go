// Package cache stores resolved bootstrap URLs keyed by host window.
//
// The bootstrap resolver computes a window's URL at most once; the stores here
// make the first write win so concurrent resolutions, in one process or across
// replicas sharing Redis, agree on a single value.
//
// Implementations:
//   - Memory: process-local map, the default
//   - Redis: shared store using SETNX, selected with REDIS_URL
//   - Guarded: circuit breaker around a remote store
package cache

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

// Store persists one URL per window.
type Store interface {
	// Get returns the stored URL and whether one exists.
	Get(ctx context.Context, wid id.WindowID) (string, bool, error)
	// SetIfAbsent stores url unless a value exists and returns the value
	// that is stored after the call.
	SetIfAbsent(ctx context.Context, wid id.WindowID, url string) (string, error)
	// Delete forgets the window's URL.
	Delete(ctx context.Context, wid id.WindowID) error
}

// Memory is an in-process Store
type Memory struct {
	mu   sync.RWMutex
	urls map[id.WindowID]string
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{urls: make(map[id.WindowID]string)}
}

func (m *Memory) Get(_ context.Context, wid id.WindowID) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.urls[wid]
	return u, ok, nil
}

func (m *Memory) SetIfAbsent(_ context.Context, wid id.WindowID, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.urls[wid]; ok {
		return existing, nil
	}
	m.urls[wid] = url
	return url, nil
}

func (m *Memory) Delete(_ context.Context, wid id.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.urls, wid)
	return nil
}

// Len returns the number of cached windows
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.urls)
}
