package embed

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
)

// ContextKey holds the host window description inside sandbox attributes.
const ContextKey = "_context"

// ContextOptions carries the host-wide values of the context object.
type ContextOptions struct {
	Mode bootstrap.Mode
	// PageViewID identifies the page view; a random UUID when empty.
	PageViewID string
	// ScriptURL is the integration script the sandbox loads.
	ScriptURL string
	StartTime time.Time
}

type referrerer interface {
	Referrer() string
}

// ContextMetadata returns a copy of el's attributes with the "_context"
// object added.
func ContextMetadata(w frame.Window, el *Element, sentinel string, opts ContextOptions) map[string]any {
	attrs := maps.Clone(el.Attributes)
	if attrs == nil {
		attrs = make(map[string]any, 1)
	}

	pageViewID := opts.PageViewID
	if pageViewID == "" {
		pageViewID = uuid.NewString()
	}
	start := opts.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	var referrer string
	if r, ok := w.(referrerer); ok {
		referrer = r.Referrer()
	}
	href := w.Location().String()

	attrs[ContextKey] = map[string]any{
		"ampcontextVersion":  opts.Mode.Version,
		"ampcontextFilepath": opts.ScriptURL,
		"sourceUrl":          href,
		"location":           map[string]any{"href": href},
		"canonicalUrl":       w.Document().CanonicalURL(),
		"referrer":           referrer,
		"pageViewId":         pageViewID,
		"startTime":          start.UnixMilli(),
		"tagName":            el.TagName,
		"sentinel":           sentinel,
		"mode": map[string]any{
			"localDev":    opts.Mode.LocalDev,
			"development": opts.Mode.Development(),
			"minified":    opts.Mode.Minified,
			"test":        opts.Mode.Test,
			"version":     opts.Mode.Version,
		},
	}
	return attrs
}
