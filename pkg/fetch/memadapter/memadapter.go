// Package memadapter is an in-memory fetch.Adapter used by this module's
// tests; cmd/cashweb does not use it. It is a reference
// implementation, not a production transport — the BitDB/MongoDB/HTTP
// backends a real deployment would use are out of scope (spec §1) and are
// modeled only through the fetch.Adapter interface they'd have to satisfy.
package memadapter

import (
	"context"
	"sync"

	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
)

// Adapter is a thread-safe, in-memory transaction store.
type Adapter struct {
	mu sync.RWMutex

	// payloads maps txid -> hex-encoded payload.
	payloads map[string]string
	// claims maps nametag name -> claim txids, in confirmation order.
	claims map[string][]string
	// revisionNext maps a revision transaction's designated output txid ->
	// the next revision's txid, modeling ByInputTxid ("the transaction
	// whose designated revision-input consumes T's designated revision
	// output").
	revisionNext map[string]string
}

// New returns an empty Adapter.
func New() *Adapter {
	return &Adapter{
		payloads:     make(map[string]string),
		claims:       make(map[string][]string),
		revisionNext: make(map[string]string),
	}
}

// PutPayload registers the payload for txid, overwriting any previous value.
func (a *Adapter) PutPayload(txid, payloadHex string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads[txid] = payloadHex
}

// Claim appends txid to name's claim list, in the order it should be
// returned for ByName(nth).
func (a *Adapter) Claim(name, txid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.claims[name] = append(a.claims[name], txid)
}

// LinkRevision records that nextTxid's script revision consumes prevTxid's
// designated revision output, so a ByInputTxid(prevTxid) resolves to
// nextTxid.
func (a *Adapter) LinkRevision(prevTxid, nextTxid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revisionNext[prevTxid] = nextTxid
}

// Fetch implements fetch.Adapter.
func (a *Adapter) Fetch(ctx context.Context, ids []fetch.Request, kind fetch.Kind) ([]fetch.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]fetch.Result, len(ids))
	for i, req := range ids {
		switch kind {
		case fetch.ByTxid:
			payload, ok := a.payloads[req.ID]
			if !ok {
				return nil, fetch.NotFound(req.ID)
			}
			out[i] = fetch.Result{PayloadHex: payload, OriginTxid: req.ID}

		case fetch.ByInputTxid:
			next, ok := a.revisionNext[req.ID]
			if !ok {
				return nil, fetch.NotFound(req.ID)
			}
			payload, ok := a.payloads[next]
			if !ok {
				return nil, fetch.NotFound(next)
			}
			out[i] = fetch.Result{PayloadHex: payload, OriginTxid: next}

		case fetch.ByName:
			list := a.claims[req.ID]
			if req.Nth < 1 || req.Nth > len(list) {
				return nil, fetch.NotFound(req.ID)
			}
			txid := list[req.Nth-1]
			payload, ok := a.payloads[txid]
			if !ok {
				return nil, fetch.NotFound(txid)
			}
			out[i] = fetch.Result{PayloadHex: payload, OriginTxid: txid}

		default:
			return nil, fetch.Failed(req.ID, context.Canceled)
		}
	}
	return out, nil
}
