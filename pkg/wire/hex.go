package wire

import (
	"encoding/hex"
	"strings"
)

// BytesToHex renders b as lowercase hex, matching the write-side convention
// spec §3 requires ("Hex alphabet is lowercase on write").
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string, accepting either case on read ("reads is
// case-insensitive" — spec §4.A).
func HexToBytes(s string) ([]byte, error) {
	return hex.DecodeString(strings.ToLower(s))
}

// IsHex reports whether s is a well-formed hex string of exactly n bytes.
func IsHex(s string, n int) bool {
	if len(s) != n*2 {
		return false
	}
	_, err := HexToBytes(s)
	return err == nil
}
