package fetch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
	"github.com/kentjhall/cashweb-sub000/pkg/fetch/memadapter"
)

// stalling blocks every Fetch until its context is cancelled, to exercise
// the timeout decorator.
type stalling struct{}

func (stalling) Fetch(ctx context.Context, ids []fetch.Request, kind fetch.Kind) ([]fetch.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout_CancelsAStalledFetch(t *testing.T) {
	t.Parallel()

	a := fetch.WithTimeout(stalling{}, 10*time.Millisecond)
	start := time.Now()
	_, err := a.Fetch(context.Background(), []fetch.Request{{ID: "aa"}}, fetch.ByTxid)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWithTimeout_PassesResultsThrough(t *testing.T) {
	t.Parallel()

	m := memadapter.New()
	m.PutPayload("aa", "68656c6c6f")

	a := fetch.WithTimeout(m, 0) // 0 selects the default
	res, err := a.Fetch(context.Background(), []fetch.Request{{ID: "aa"}}, fetch.ByTxid)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "68656c6c6f", res[0].PayloadHex)
}

func TestWithMetrics_DisabledIsIdentity(t *testing.T) {
	t.Parallel()

	m := memadapter.New()
	// Metrics are off in tests, so the decorator must hand back the same
	// adapter rather than a wrapper.
	assert.Equal(t, fetch.Adapter(m), fetch.WithMetrics(m))
}
