// Package fetch defines the capability interface the tree, chain, and
// script packages use to retrieve transaction payloads (spec §4.D). The
// concrete HTTP/database backends that physically talk to a blockchain
// indexer are explicitly out of scope (spec §1) — this package only
// specifies the contract they must satisfy, plus an in-memory reference
// implementation used by every test in the module.
package fetch

import (
	"context"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// Kind selects which of the three lookup semantics spec §4.D defines a
// request batch uses. A single Adapter.Fetch call only ever uses one Kind.
type Kind int

const (
	// ByTxid returns the payload of the transaction named by each request.
	ByTxid Kind = iota
	// ByInputTxid returns, for each supplied txid, the payload of the
	// transaction whose designated revision-input consumes that txid's
	// designated revision output. Used to walk a nametag's revision chain.
	ByInputTxid
	// ByName looks up nametag claims by their marker output and returns the
	// Nth claim in confirmation order. Only one nametag per call — the
	// Request.ID field holds the name and Request.Nth holds N.
	ByName
)

// String implements fmt.Stringer for logging.
func (k Kind) String() string {
	switch k {
	case ByTxid:
		return "ByTxid"
	case ByInputTxid:
		return "ByInputTxid"
	case ByName:
		return "ByName"
	default:
		return "Unknown"
	}
}

// Request identifies one member of a fetch batch.
type Request struct {
	// ID is a txid (for ByTxid/ByInputTxid) or a nametag name (for ByName).
	ID string
	// Nth is only meaningful for ByName: "the count parameter is
	// repurposed as nth" (spec §4.D).
	Nth int
}

// Result is one element of a fetch response, in the same order as the
// Request it answers.
type Result struct {
	// PayloadHex is the hex-encoded transaction payload.
	PayloadHex string
	// OriginTxid is the txid the payload actually came from. Required for
	// ByName and ByInputTxid (the caller didn't know it in advance);
	// optional for ByTxid, where the caller already supplied it.
	OriginTxid string
}

// Adapter is the capability interface every retrieval component depends on.
// Implementations may do parallel I/O underneath but must present
// synchronous, ordered batch results (spec §5).
type Adapter interface {
	// Fetch retrieves the payloads for ids under the given kind. The
	// returned slice has exactly len(ids) elements in request order.
	// A missing member is reported as status.FetchMissing, a transport or
	// protocol failure as status.FetchError — both surface as an error
	// from Fetch rather than a hole in the result slice.
	Fetch(ctx context.Context, ids []Request, kind Kind) ([]Result, error)
}

// NotFound constructs the standard FetchMissing error for a single id.
func NotFound(id string) error {
	return status.New(status.FetchMissing, "no such transaction").WithIdentifier(id)
}

// Failed constructs the standard FetchError for a transport/protocol
// failure, wrapping the underlying cause in the message.
func Failed(id string, cause error) error {
	return status.Newf(status.FetchError, "fetch failed: %v", cause).WithIdentifier(id)
}
