package script

import (
	"github.com/google/uuid"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// tempSink is one scoped temporary byte container created by a STORE*
// opcode (spec §4.G). Unlike the caller's sink, a tempSink supports
// reposition via SEEKSTORED, so it buffers in memory rather than streaming.
type tempSink struct {
	buf []byte
	pos int

	// debugTag identifies this sink in debug logs across its STORE ->
	// SEEKSTORED/WRITEFROMSTORED/DROPSTORED lifetime. It never appears on
	// the wire; it exists only so a log line can tell two concurrently
	// live scoped sinks apart.
	debugTag string
}

func newTempSink() *tempSink {
	return &tempSink{debugTag: uuid.NewString()}
}

// Write implements io.Writer, appending to the end regardless of pos —
// STORE* opcodes only ever write sequentially while populating a sink;
// repositioning only affects subsequent reads.
func (s *tempSink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// seek repositions pos per the whence encoding in spec §4.G.
func (s *tempSink) seek(whence Whence, offset int) error {
	var base int
	switch whence {
	case WhenceStart:
		base = offset
	case WhenceCurrent:
		base = s.pos + offset
	case WhenceCurrentNegated:
		base = s.pos - offset
	case WhenceEndNegated:
		base = len(s.buf) - offset
	default:
		return status.Newf(status.ScriptStructure, "unknown SEEKSTORED whence %d", whence)
	}
	if base < 0 || base > len(s.buf) {
		return status.Newf(status.ScriptStructure, "SEEKSTORED position %d out of range [0,%d]", base, len(s.buf))
	}
	s.pos = base
	return nil
}

// remaining returns the bytes from pos to the end without advancing pos.
func (s *tempSink) remaining() []byte {
	return s.buf[s.pos:]
}

// readSome returns up to n bytes from pos and advances pos. The caller can
// tell a short read occurred by comparing len(result) to n.
func (s *tempSink) readSome(n int) []byte {
	end := s.pos + n
	if end > len(s.buf) {
		end = len(s.buf)
	}
	out := s.buf[s.pos:end]
	s.pos = end
	return out
}
