// Package wire implements the protocol-version-dependent constants and the
// pure byte/hex/integer codec that every other package builds on (spec §3,
// §4.A). It has no dependency on status or any other core package so it can
// sit at the bottom of the import graph, the same way the teacher's
// internal/protocol/xdr package has no dependency on anything above it.
package wire

import "fmt"

// Protocol describes the size parameters that vary between cashweb protocol
// revisions (spec §9, Open Question 2: "two different protocol constants
// for TX_DATA_BYTES (220 vs 222) appear across headers").
type Protocol struct {
	// Version is the protocol field stored in the metadata trailer.
	Version uint16
	// TxDataBytes is the maximum payload bytes per transaction.
	TxDataBytes int
}

const (
	// TxidBytes is the raw byte length of a transaction id.
	TxidBytes = 32
	// TxidChars is the hex-encoded length of a transaction id.
	TxidChars = TxidBytes * 2
	// MetadataBytes is the fixed size of the trailing metadata footer.
	MetadataBytes = 12
	// MetadataChars is the hex-encoded length of the metadata footer.
	MetadataChars = MetadataBytes * 2
)

// ProtocolV0 is the original protocol revision (TX_DATA_BYTES = 220).
var ProtocolV0 = Protocol{Version: 0, TxDataBytes: 220}

// ProtocolV1 is a later revision with two extra data bytes per transaction
// (TX_DATA_BYTES = 222), reclaimed from a tighter push-opcode framing.
var ProtocolV1 = Protocol{Version: 1, TxDataBytes: 222}

// registry maps a protocol version field to its Protocol definition. Readers
// resolve TxDataBytes from this table rather than assuming a single global
// constant, per spec §9's instruction to drive protocol-dependent sizes from
// the parsed `protocol` field.
var registry = map[uint16]Protocol{
	ProtocolV0.Version: ProtocolV0,
	ProtocolV1.Version: ProtocolV1,
}

// Resolve looks up the Protocol for a given version field. Unrecognized
// versions are not an error here — spec §3 says "readers warn on newer" —
// callers that need a hard failure check the second result themselves.
func Resolve(version uint16) (Protocol, bool) {
	p, ok := registry[version]
	return p, ok
}

// Newest returns the highest protocol version this module knows how to
// write. Send operations default to this unless the caller overrides it.
func Newest() Protocol {
	return ProtocolV1
}

// String implements fmt.Stringer for logging.
func (p Protocol) String() string {
	return fmt.Sprintf("protocol v%d (tx_data_bytes=%d)", p.Version, p.TxDataBytes)
}
