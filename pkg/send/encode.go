package send

import (
	"context"
	"time"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// sendState carries the mutable bookkeeping threaded through one Send call:
// the utxo pool, current fee rate, and running transaction/fee counters.
// It exists so buildSegment's recursion doesn't need to pass six separate
// parameters down through every level of tree construction.
type sendState struct {
	pipeline      *Pipeline
	pool          *utxoPool
	satPerByte    *int64
	protocol      wire.Protocol
	retryInterval time.Duration

	txCount  int
	totalFee int64
}

// buildSegment implements the bottom-up half of spec §4.J's encoding
// algorithm for one chain element: it submits every transaction below the
// element's own root (leaf data chunks, then successive levels of
// concatenated-id tree nodes) and returns the root's own payload bytes,
// unsubmitted — the caller appends a chain-link suffix or the file
// trailer and submits it as the chain element transaction itself.
func (st *sendState) buildSegment(ctx context.Context, data []byte, depth uint32) ([]byte, error) {
	if depth == 0 {
		return data, nil
	}

	leaves := splitChunks(data, st.protocol.TxDataBytes)
	ids := make([][]byte, len(leaves))
	for i, chunk := range leaves {
		txid, err := st.submitPlainTx(ctx, chunk, "leaf")
		if err != nil {
			return nil, err
		}
		idBytes, err := wire.HexToBytes(txid)
		if err != nil {
			return nil, status.Newf(status.SysError, "send: signer returned a non-hex txid %q", txid)
		}
		ids[i] = idBytes
	}

	nodeFanout := st.protocol.TxDataBytes / wire.TxidBytes
	for level := uint32(1); level < depth; level++ {
		groups := groupIDs(ids, nodeFanout)
		next := make([][]byte, len(groups))
		for gi, g := range groups {
			payload := concatIDs(g)
			txid, err := st.submitPlainTx(ctx, payload, "node")
			if err != nil {
				return nil, err
			}
			idBytes, err := wire.HexToBytes(txid)
			if err != nil {
				return nil, status.Newf(status.SysError, "send: signer returned a non-hex txid %q", txid)
			}
			next[gi] = idBytes
		}
		ids = next
	}

	return concatIDs(ids), nil
}

// splitChunks divides data into pieces of at most size bytes. An empty
// input yields a single empty chunk so a zero-byte leaf still gets a
// transaction.
func splitChunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// groupIDs partitions ids into groups of at most fanout elements each, in
// order.
func groupIDs(ids [][]byte, fanout int) [][][]byte {
	var groups [][][]byte
	for len(ids) > 0 {
		n := fanout
		if n > len(ids) {
			n = len(ids)
		}
		groups = append(groups, ids[:n])
		ids = ids[n:]
	}
	return groups
}

// concatIDs flattens a sequence of raw txid byte slices into one payload.
func concatIDs(ids [][]byte) []byte {
	out := make([]byte, 0, len(ids)*wire.TxidBytes)
	for _, id := range ids {
		out = append(out, id...)
	}
	return out
}

// submitPlainTx submits a leaf or intermediate tree-node transaction: pure
// data with no forced input/output and no chain-link suffix or trailer.
func (st *sendState) submitPlainTx(ctx context.Context, payload []byte, kind string) (string, error) {
	txid, fee, err := st.pipeline.submitTx(ctx, &st.pool, st.satPerByte, payload, nil, "", nil, st.retryInterval)
	if err != nil {
		return "", err
	}
	st.txCount++
	st.totalFee += fee
	metrics.ObserveTransaction(st.pipeline.sendMetrics, kind, len(payload))
	logger.DebugCtx(ctx, "submitted tree transaction", logger.Identifier(txid), logger.Size(len(payload)), logger.Opcode(kind))
	return txid, nil
}

// submitRootTx submits a chain element's own transaction: the root payload
// (already carrying its chain-link suffix or file trailer), honoring a
// forced input/output and any extra outputs (tiny-change) the caller asked
// for (spec §4.J: "Forced input/output").
func (st *sendState) submitRootTx(ctx context.Context, payload []byte, forcedIn *UTXO, destAddr string, extra []Output) (string, error) {
	txid, fee, err := st.pipeline.submitTx(ctx, &st.pool, st.satPerByte, payload, forcedIn, destAddr, extra, st.retryInterval)
	if err != nil {
		return "", err
	}
	st.txCount++
	st.totalFee += fee
	return txid, nil
}
