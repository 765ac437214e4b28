// Package tree implements depth-first reconstruction of a file's bytes from
// a tree root payload and its referenced descendants (spec §4.E).
package tree

import (
	"context"
	"io"

	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Traverse writes the bytes encoded under root to sink. At level ℓ < depth
// the current payload is treated as concatenated child txids; at level
// ℓ == depth it is raw data bytes. All children of one node are fetched in
// a single adapter call and written to sink in payload order (spec §4.E:
// "Fetch batching").
func Traverse(ctx context.Context, adapter fetch.Adapter, root []byte, depth uint32, sink io.Writer) error {
	if depth == 0 {
		if _, err := sink.Write(root); err != nil {
			return status.Newf(status.Write, "tree: sink write failed: %v", err)
		}
		return nil
	}

	childIDs, err := splitIDs(root)
	if err != nil {
		return err
	}

	return ExpandChildren(ctx, adapter, childIDs, depth-1, sink)
}

// ExpandChildren fetches every id in ids in a single batched adapter call
// and recurses into each at childDepth, writing to sink in id order (spec
// §4.E: "Fetch batching"). It is exported so pkg/chain can drive it
// directly with a level-0 child-id list assembled across chain-element
// boundaries (spec §4.E's "Chained-tree stitching"), rather than requiring
// that list to already sit complete inside a single payload the way
// Traverse's own splitIDs does.
func ExpandChildren(ctx context.Context, adapter fetch.Adapter, ids []string, childDepth uint32, sink io.Writer) error {
	children, err := fetchChildren(ctx, adapter, ids)
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := Traverse(ctx, adapter, child, childDepth, sink); err != nil {
			return err
		}
	}
	return nil
}

// splitIDs parses payload as a whole-multiple-of-TxidBytes sequence of
// child ids (spec invariant: "A tree node's payload length ... is a whole
// multiple of TXID_BYTES in binary").
func splitIDs(payload []byte) ([]string, error) {
	if len(payload)%wire.TxidBytes != 0 {
		return nil, status.New(status.FileStructure, "tree node payload is not a whole multiple of the txid length")
	}
	n := len(payload) / wire.TxidBytes
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = wire.BytesToHex(payload[i*wire.TxidBytes : (i+1)*wire.TxidBytes])
	}
	return ids, nil
}

// fetchChildren batch-fetches every id in one adapter call and returns the
// decoded payload bytes in the same order.
func fetchChildren(ctx context.Context, adapter fetch.Adapter, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	reqs := make([]fetch.Request, len(ids))
	for i, id := range ids {
		reqs[i] = fetch.Request{ID: id}
	}

	results, err := adapter.Fetch(ctx, reqs, fetch.ByTxid)
	if err != nil {
		if status.CodeOf(err) == status.FetchMissing {
			return nil, status.New(status.FileDepth, "tree: expected child transaction not found")
		}
		return nil, err
	}

	children := make([][]byte, len(results))
	for i, res := range results {
		payload, err := wire.HexToBytes(res.PayloadHex)
		if err != nil {
			return nil, status.New(status.FileStructure, "tree: child payload is not valid hex")
		}
		children[i] = payload
	}
	return children, nil
}
