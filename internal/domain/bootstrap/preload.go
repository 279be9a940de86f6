package bootstrap

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

// HintSink receives preconnect/preload hints.
type HintSink interface {
	Preload(url, resourceType string)
}

// HintSinkFunc adapts a function to HintSink
type HintSinkFunc func(url, resourceType string)

func (f HintSinkFunc) Preload(url, resourceType string) { f(url, resourceType) }

// Collector is a HintSink that records hints in order.
type Collector struct {
	Hints []types.PreloadHint
}

func (c *Collector) Preload(url, resourceType string) {
	c.Hints = append(c.Hints, types.PreloadHint{URL: url, Type: resourceType})
}

// Preload warms the bootstrap page and integration script for w. With
// disallowCustom the document's custom URL is ignored and the default page is
// hinted instead.
func (r *Resolver) Preload(ctx context.Context, w frame.Window, sink HintSink, disallowCustom bool) error {
	var bootstrapURL string
	if disallowCustom {
		bootstrapURL = r.Default(w, DefaultBasename)
	} else {
		u, err := r.Resolve(ctx, w, false)
		if err != nil {
			return err
		}
		bootstrapURL = u
	}

	sink.Preload(bootstrapURL, types.ResourceDocument)
	sink.Preload(r.IntegrationScriptURL(w), types.ResourceScript)
	return nil
}
