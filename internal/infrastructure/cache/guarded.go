package cache

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

// Guarded wraps a remote Store with a circuit breaker so an unreachable
// backend fails fast instead of stalling every resolution.
type Guarded struct {
	store   Store
	breaker *resilience.Breaker
}

// NewGuarded guards store with breaker
func NewGuarded(store Store, breaker *resilience.Breaker) *Guarded {
	return &Guarded{store: store, breaker: breaker}
}

type lookup struct {
	url string
	ok  bool
}

func (g *Guarded) Get(ctx context.Context, wid id.WindowID) (string, bool, error) {
	res, err := resilience.Do(g.breaker, func() (lookup, error) {
		u, ok, err := g.store.Get(ctx, wid)
		return lookup{url: u, ok: ok}, err
	})
	if err != nil {
		return "", false, fmt.Errorf("%s cache: %w", g.breaker.Name(), err)
	}
	return res.url, res.ok, nil
}

func (g *Guarded) SetIfAbsent(ctx context.Context, wid id.WindowID, url string) (string, error) {
	stored, err := resilience.Do(g.breaker, func() (string, error) {
		return g.store.SetIfAbsent(ctx, wid, url)
	})
	if err != nil {
		return "", fmt.Errorf("%s cache: %w", g.breaker.Name(), err)
	}
	return stored, nil
}

func (g *Guarded) Delete(ctx context.Context, wid id.WindowID) error {
	if err := g.breaker.Run(func() error { return g.store.Delete(ctx, wid) }); err != nil {
		return fmt.Errorf("%s cache: %w", g.breaker.Name(), err)
	}
	return nil
}

// State reports the breaker state for health checks
func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}
