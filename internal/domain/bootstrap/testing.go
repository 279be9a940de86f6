package bootstrap

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
)

// SetOverrideURL makes development and test builds return u as the default
// URL. Test harness only.
func (r *Resolver) SetOverrideURL(u string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrideURL = u
}

// ResetOverrideURL clears the override set by SetOverrideURL.
func (r *Resolver) ResetOverrideURL() {
	r.SetOverrideURL("")
}

// ResetCache forgets w's resolved URL and subdomain.
func (r *Resolver) ResetCache(ctx context.Context, w frame.Window) error {
	return r.Forget(ctx, w)
}
