package fetch

import "context"

// splitting wraps an Adapter whose underlying transport cannot satisfy
// arbitrarily large batches, splitting each Fetch call into chunks of at
// most maxBatch requests and presenting the combined, ordered result as if
// it had come back in one call (spec §4.D: "adapters must tolerate oversize
// queries by splitting the batch and retrying; the core treats this as
// transparent").
type splitting struct {
	inner    Adapter
	maxBatch int
}

// SplitBatches returns an Adapter that transparently chunks oversize
// requests into calls of at most maxBatch against inner. maxBatch <= 0
// disables splitting (every call passes straight through).
func SplitBatches(inner Adapter, maxBatch int) Adapter {
	if maxBatch <= 0 {
		return inner
	}
	return &splitting{inner: inner, maxBatch: maxBatch}
}

func (s *splitting) Fetch(ctx context.Context, ids []Request, kind Kind) ([]Result, error) {
	if len(ids) <= s.maxBatch {
		return s.inner.Fetch(ctx, ids, kind)
	}

	out := make([]Result, 0, len(ids))
	for start := 0; start < len(ids); start += s.maxBatch {
		end := start + s.maxBatch
		if end > len(ids) {
			end = len(ids)
		}
		chunk, err := s.inner.Fetch(ctx, ids[start:end], kind)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}
