package fetch

import (
	"context"
	"time"
)

// DefaultTimeout is the per-request deadline the fetch layer enforces when
// the caller doesn't pick one (spec §5: "The fetch adapter enforces a
// per-request timeout (default 20 s)").
const DefaultTimeout = 20 * time.Second

// timeboxed wraps an Adapter, bounding every Fetch call with a deadline.
// Like SplitBatches and WithMetrics, it composes with any other decorator.
type timeboxed struct {
	inner   Adapter
	timeout time.Duration
}

// WithTimeout returns an Adapter whose Fetch calls are cancelled after
// timeout. A non-positive timeout selects DefaultTimeout.
func WithTimeout(inner Adapter, timeout time.Duration) Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeboxed{inner: inner, timeout: timeout}
}

func (a *timeboxed) Fetch(ctx context.Context, ids []Request, kind Kind) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.inner.Fetch(ctx, ids, kind)
}
