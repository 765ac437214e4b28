// Package recovery persists and reloads a mid-send checkpoint so a
// partially sent file can be resumed after a fatal failure (spec §4.L).
//
// A recovery stream is three decimal header lines followed by the raw,
// as-yet-untransmitted bytes of the tree level the send pipeline was
// building when it gave up (spec §6: "Recovery stream layout"). The body
// is opaque to this package; only pkg/send interprets it.
package recovery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// Stream is a resumable checkpoint of an in-progress send (spec §4.J:
// "Recovery stream").
type Stream struct {
	// Type is the file's declared metadata type (spec §3).
	Type uint16
	// MaxTreeDepth is the tree depth the original send was configured with.
	MaxTreeDepth uint32
	// SavedTreeDepth is the level the pipeline had reached when it was
	// interrupted; reloading re-enters the encoding algorithm here.
	SavedTreeDepth uint32
	// Body is the remaining, untransmitted bytes of the level that was in
	// progress.
	Body []byte
}

// Write serializes s as header lines followed by its raw body (spec §6).
func Write(w io.Writer, s Stream) error {
	header := fmt.Sprintf("%d\n%d\n%d\n", s.Type, s.MaxTreeDepth, s.SavedTreeDepth)
	if _, err := io.WriteString(w, header); err != nil {
		return status.Newf(status.Write, "recovery: header write failed: %v", err)
	}
	if _, err := w.Write(s.Body); err != nil {
		return status.Newf(status.Write, "recovery: body write failed: %v", err)
	}
	return nil
}

// Read parses a recovery stream previously produced by Write. Header
// integers are whitespace-stripped decimal, exactly as spec §4.L specifies.
func Read(r io.Reader) (Stream, error) {
	br := bufio.NewReader(r)

	typ, err := readHeaderLine(br)
	if err != nil {
		return Stream{}, err
	}
	maxDepth, err := readHeaderLine(br)
	if err != nil {
		return Stream{}, err
	}
	savedDepth, err := readHeaderLine(br)
	if err != nil {
		return Stream{}, err
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return Stream{}, status.Newf(status.SysError, "recovery: body read failed: %v", err)
	}

	return Stream{
		Type:           uint16(typ),
		MaxTreeDepth:   uint32(maxDepth),
		SavedTreeDepth: uint32(savedDepth),
		Body:           body,
	}, nil
}

// SaveToFile persists s as dir/recovery.checkpoint, replacing any earlier
// checkpoint there, staged under a random name and atomically renamed into
// place (the same
// create-temp-then-rename pattern pkg/revisionlock uses for its lock
// file), so a crash mid-write never leaves a partially-written checkpoint
// that LoadFromFile could misread as complete. It returns the final path.
func SaveToFile(dir string, s Stream) (string, error) {
	staging := filepath.Join(dir, fmt.Sprintf(".recovery-%s.tmp", uuid.NewString()))

	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", status.Newf(status.SysError, "recovery: create staging file: %v", err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		os.Remove(staging)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return "", status.Newf(status.Write, "recovery: close staging file: %v", err)
	}

	final := filepath.Join(dir, "recovery.checkpoint")
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return "", status.Newf(status.SysError, "recovery: rename staging file: %v", err)
	}
	return final, nil
}

// LoadFromFile reads back a checkpoint previously written by SaveToFile.
func LoadFromFile(path string) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stream{}, status.Newf(status.SysError, "recovery: open %s: %v", path, err)
	}
	defer f.Close()
	return Read(f)
}

func readHeaderLine(br *bufio.Reader) (int64, error) {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, status.Newf(status.SysError, "recovery: header read failed: %v", err)
	}
	line = strings.TrimSpace(line)
	n, perr := strconv.ParseInt(line, 10, 64)
	if perr != nil {
		return 0, status.Newf(status.FileStructure, "recovery: malformed header line %q", line)
	}
	return n, nil
}
