// Package chain implements the linear walk across a file's linked chain
// elements, each of which may itself be a tree root (spec §4.F).
package chain

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/tree"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Walk reconstructs a file's bytes across its chain elements starting at
// rootTxid, writing to sink in chain order, and returns the file's parsed
// metadata trailer.
//
// The root element is the last transaction the writer broadcast, so it is
// the one carrying the trailer (spec §4.J: "Inject metadata only into the
// very last transaction sent"); its payload is data, then the next chain
// element's txid when the chain continues, then the trailer. Interior
// elements end with a bare next-txid, and the final element is raw content
// (spec §4.F's suffix-length table: METADATA_CHARS+TXID_CHARS, TXID_CHARS,
// 0). Walking therefore needs nothing beyond the root id itself.
func Walk(ctx context.Context, adapter fetch.Adapter, rootTxid string, sink io.Writer) (metadata.Metadata, error) {
	payload, err := fetchPayload(ctx, adapter, rootTxid)
	if err != nil {
		return metadata.Metadata{}, err
	}

	meta, err := metadata.ReadTrailer(payload)
	if err != nil {
		return metadata.Metadata{}, err
	}
	if _, known := wire.Resolve(meta.Protocol); !known {
		// Spec §3: readers warn on newer, they do not refuse.
		logger.WarnCtx(ctx, "file written by a newer protocol than this reader knows",
			logger.Protocol(meta.Protocol), logger.Identifier(rootTxid))
	}
	payload = payload[:len(payload)-wire.MetadataBytes]

	// A tree's level-0 child-id list is not guaranteed to fit inside one
	// chain element's payload; when it doesn't, pending carries the
	// in-progress id fragment across the boundary into the next element's
	// content (spec §4.E: "Chained-tree stitching"). Only level 0 needs
	// this treatment — once a level-0 id is fetched, its subtree is fully
	// self-contained within that single transaction.
	var pending *tree.PartialIDs
	if meta.Depth > 0 {
		pending = &tree.PartialIDs{}
	}

	for step := uint32(0); ; step++ {
		isLast := step == meta.Length

		content := payload
		var nextTxid string
		if !isLast {
			if len(content) < wire.TxidBytes {
				return meta, status.New(status.FileStructure, "chain element shorter than a txid, but more elements remain")
			}
			suffix := content[len(content)-wire.TxidBytes:]
			nextTxid = wire.BytesToHex(suffix)
			content = content[:len(content)-wire.TxidBytes]
		}

		var nextPayload []byte
		var g *errgroup.Group
		var gctx context.Context
		if !isLast {
			g, gctx = errgroup.WithContext(ctx)
			g.Go(func() error {
				p, err := fetchPayload(gctx, adapter, nextTxid)
				if err != nil {
					if status.CodeOf(err) == status.FetchMissing {
						return status.New(status.FileLength, "chain ended before declared length")
					}
					return err
				}
				nextPayload = p
				return nil
			})
		}

		if pending != nil {
			ids := pending.Advance(content, wire.TxidBytes)
			if isLast && pending.Pending() {
				if g != nil {
					_ = g.Wait()
				}
				return meta, status.New(status.FileStructure, "level-0 child id list never completed across chain elements")
			}
			if len(ids) > 0 {
				hexIDs := make([]string, len(ids))
				for i, id := range ids {
					hexIDs[i] = wire.BytesToHex(id)
				}
				if err := tree.ExpandChildren(ctx, adapter, hexIDs, meta.Depth-1, sink); err != nil {
					if g != nil {
						_ = g.Wait()
					}
					return meta, err
				}
			}
		} else {
			if _, err := sink.Write(content); err != nil {
				if g != nil {
					_ = g.Wait()
				}
				return meta, status.Newf(status.Write, "chain: sink write failed: %v", err)
			}
		}

		if isLast {
			return meta, nil
		}
		if err := g.Wait(); err != nil {
			return meta, err
		}
		payload = nextPayload
	}
}

func fetchPayload(ctx context.Context, adapter fetch.Adapter, txid string) ([]byte, error) {
	results, err := adapter.Fetch(ctx, []fetch.Request{{ID: txid}}, fetch.ByTxid)
	if err != nil {
		return nil, err
	}
	payload, err := wire.HexToBytes(results[0].PayloadHex)
	if err != nil {
		return nil, status.New(status.FileStructure, "chain element payload is not valid hex")
	}
	return payload, nil
}
