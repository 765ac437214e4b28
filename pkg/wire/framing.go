package wire

import "fmt"

// Push-opcode framing (spec §6): inside a transaction's data-carrying
// output, a one-byte push opcode precedes the payload length; a length > 75
// uses a two-byte length prefix (one opcode byte, one length byte).
// Multi-push outputs concatenate consecutive pushes into one logical
// payload. This is adapter territory — the chain/tree/script packages never
// see framed bytes, and neither the in-memory adapter nor the send pipeline
// calls these helpers — so it lives here alongside the rest of the wire
// codec for a concrete adapter to use.
const (
	opDirectPushMax = 75 // opcodes 0x01..0x4b push that many literal bytes
	opPushData1     = 76 // OP_PUSHDATA1: next byte is the length
)

// StripPushFraming removes push-opcode framing from a sequence of one or
// more consecutive pushes and returns the concatenated payload bytes.
func StripPushFraming(framed []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(framed) {
		op := int(framed[i])
		i++
		var n int
		switch {
		case op >= 1 && op <= opDirectPushMax:
			n = op
		case op == opPushData1:
			if i >= len(framed) {
				return nil, fmt.Errorf("wire: truncated PUSHDATA1 length byte")
			}
			n = int(framed[i])
			i++
		default:
			return nil, fmt.Errorf("wire: unsupported push opcode 0x%02x", op)
		}
		if i+n > len(framed) {
			return nil, fmt.Errorf("wire: push of %d bytes overruns buffer", n)
		}
		out = append(out, framed[i:i+n]...)
		i += n
	}
	return out, nil
}

// ApplyPushFraming frames payload as one or more consecutive pushes of at
// most 255 bytes each: a chunk of up to opDirectPushMax bytes gets a direct
// push opcode, a larger chunk an OP_PUSHDATA1 push.
func ApplyPushFraming(payload []byte) []byte {
	var out []byte
	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > 255 {
			chunk = chunk[:255]
		}
		if len(chunk) <= opDirectPushMax {
			out = append(out, byte(len(chunk)))
		} else {
			out = append(out, opPushData1, byte(len(chunk)))
		}
		out = append(out, chunk...)
		payload = payload[len(chunk):]
	}
	return out
}
