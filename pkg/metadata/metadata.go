// Package metadata reads and writes the fixed-size trailer that closes the
// last transaction of a cashweb file (spec §3, §4.B).
package metadata

import (
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Type identifies what kind of file a chain's trailer describes.
type Type uint16

const (
	// TypeOpaque is a plain, untyped file.
	TypeOpaque Type = 0
	// TypeDirectory marks a file whose content is a directory index
	// (pkg/dirindex).
	TypeDirectory Type = 1
	// TypeMimeBase is the first value treated as an offset into the external
	// mime-type table (spec §3: "≥ some base = offset into an external MIME
	// table"). The table itself is an out-of-scope collaborator (spec §1);
	// this constant only lets callers decide whether to consult it.
	TypeMimeBase Type = 2
)

// IsMimeOffset reports whether t names a MIME-table offset rather than one
// of the reserved structural types.
func (t Type) IsMimeOffset() bool {
	return t >= TypeMimeBase
}

// Metadata is the trailer described in spec §3 and §6.
type Metadata struct {
	// Length is the number of additional transactions in the chain after
	// the root-most one. 0 means the file is a single transaction or tree.
	Length uint32
	// Depth is the tree depth under each chain element. 0 means the chain
	// element itself is data, not a tree root.
	Depth uint32
	// Type is the file's declared type (spec §3).
	Type Type
	// Protocol is the protocol version the writer used.
	Protocol uint16
}

// ReadTrailer parses the last wire.MetadataBytes of payload as a trailer.
// Per spec §4.B, a payload shorter than that is MetadataMissing — the
// trailer is only ever read from the root chain element (the last one
// broadcast, the first one fetched).
func ReadTrailer(payload []byte) (Metadata, error) {
	if len(payload) < wire.MetadataBytes {
		return Metadata{}, status.New(status.MetadataMissing, "payload shorter than metadata footer")
	}
	trailer := payload[len(payload)-wire.MetadataBytes:]
	return Metadata{
		Length:   wire.Uint32(trailer[0:4]),
		Depth:    wire.Uint32(trailer[4:8]),
		Type:     Type(wire.Uint16(trailer[8:10])),
		Protocol: wire.Uint16(trailer[10:12]),
	}, nil
}

// WriteTrailer appends m's wire encoding to buf and returns the extended
// slice. It never reads or validates buf's existing contents — callers are
// responsible for only calling this once, on the last transaction's payload
// (spec §3: "metadata is present only once, at the last chain element").
func WriteTrailer(m Metadata, buf []byte) []byte {
	var trailer [wire.MetadataBytes]byte
	wire.PutUint32(trailer[0:4], m.Length)
	wire.PutUint32(trailer[4:8], m.Depth)
	wire.PutUint16(trailer[8:10], uint16(m.Type))
	wire.PutUint16(trailer[10:12], m.Protocol)
	return append(buf, trailer[:]...)
}

// HasMore reports whether the chain described by m has at least one more
// element after the one carrying this trailer.
func (m Metadata) HasMore() bool {
	return m.Length > 0
}

// IsTree reports whether the chain element carrying this trailer is itself
// a tree root (depth > 0) rather than a raw data payload.
func (m Metadata) IsTree() bool {
	return m.Depth > 0
}
