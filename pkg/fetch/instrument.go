package fetch

import (
	"context"
	"time"

	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
)

// instrumented wraps an Adapter, recording one ObserveBatch sample per
// Fetch call. It is a decorator in the same shape as SplitBatches, so the
// two compose in either order.
type instrumented struct {
	inner Adapter
	m     metrics.FetchMetrics
}

// WithMetrics returns an Adapter that records batch metrics around inner,
// or inner unchanged when metrics are disabled.
func WithMetrics(inner Adapter) Adapter {
	m := metrics.NewFetchMetrics()
	if m == nil {
		return inner
	}
	return &instrumented{inner: inner, m: m}
}

func (a *instrumented) Fetch(ctx context.Context, ids []Request, kind Kind) ([]Result, error) {
	start := time.Now()
	results, err := a.inner.Fetch(ctx, ids, kind)
	metrics.ObserveBatch(a.m, kind.String(), len(ids), time.Since(start))
	return results, err
}
