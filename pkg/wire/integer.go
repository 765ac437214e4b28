package wire

import "encoding/binary"

// Fixed-width network-byte-order integer packing, built directly on
// encoding/binary the way the teacher's internal/protocol/xdr package packs
// its own fixed fields. Unlike full XDR, cashweb's wire layout never pads to
// a 4-byte boundary — payloads are packed tight up to TX_DATA_BYTES — so
// these helpers operate on exact-width slots rather than XDR's padded
// opaque-data convention (see DESIGN.md for why github.com/rasky/go-xdr
// itself isn't reused here).

// PutUint32 writes v into buf[0:4] in network byte order. buf must have
// length >= 4.
func PutUint32(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}

// Uint32 reads a big-endian uint32 from buf[0:4]. buf must have length >= 4.
func Uint32(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

// PutUint16 writes v into buf[0:2] in network byte order. buf must have
// length >= 2.
func PutUint16(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

// Uint16 reads a big-endian uint16 from buf[0:2]. buf must have length >= 2.
func Uint16(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf)
}
