// Package dirindex parses and serializes the directory-index format: a
// textual path table followed by a packed binary array of transaction ids
// (spec §3 "Directory index entity", §4.I).
package dirindex

import (
	"strings"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// bulkMarker is the reserved resolution-line value meaning "use the next
// bulk txid slot" (spec §3).
const bulkMarker = "@"

// SelfReference is the reserved identifier value meaning "look up in this
// same index stream again under the new prefix" (spec §4.I: "`.` indicates
// a recursive lookup into the current index under a new prefix"). Callers
// of Lookup must special-case it themselves; dirindex only parses and
// returns it unchanged.
const SelfReference = "."

// entry is one section-1 path declaration paired with its resolution line.
type entry struct {
	path       string
	resolution string
}

// parse splits raw into its two sections and decodes section 1's
// line-pairs (spec §3: "a terminating empty line separates sections").
//
// Lines are read one at a time rather than by locating a "\n\n" separator
// in the whole buffer: a zero-entry index's terminating blank line is its
// very first line, so there is no preceding non-empty line for a "\n\n"
// scan to pair with.
func parse(raw []byte) ([]entry, []byte, error) {
	var entries []entry
	rest := raw

	for {
		line, remainder, ok := cutLine(rest)
		if !ok {
			return nil, nil, status.New(status.FileStructure, "directory index missing section separator")
		}
		if line == "" {
			return entries, remainder, nil
		}

		resLine, remainder, ok := cutLine(remainder)
		if !ok {
			return nil, nil, status.New(status.FileStructure, "directory index section 1 has an unpaired line")
		}
		if !strings.HasPrefix(line, "/") {
			return nil, nil, status.New(status.FileStructure, "directory index path line does not begin with /")
		}
		entries = append(entries, entry{path: line, resolution: resLine})
		rest = remainder
	}
}

// cutLine splits off the text before the next "\n" in s, returning ok=false
// if s contains no further newline (a truncated directory index: section 1
// never reached its terminating blank line).
func cutLine(s []byte) (line string, rest []byte, ok bool) {
	idx := indexOf(s, []byte("\n"))
	if idx < 0 {
		return "", nil, false
	}
	return string(s[:idx]), s[idx+1:], true
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

// resolveAll walks entries in declaration order, assigning each bulkMarker
// resolution the next section-2 slot (spec §4.I: "the k-th path that
// defers to section 2 claims the k-th binary record").
func resolveAll(entries []entry, section2 []byte) ([]string, error) {
	ids := make([]string, len(entries))
	slot := 0
	for i, e := range entries {
		if e.resolution != bulkMarker {
			ids[i] = e.resolution
			continue
		}
		start := slot * wire.TxidBytes
		end := start + wire.TxidBytes
		if end > len(section2) {
			return nil, status.New(status.FileStructure, "directory index section 2 shorter than its claimed record count")
		}
		ids[i] = wire.BytesToHex(section2[start:end])
		slot++
	}
	return ids, nil
}

// Lookup walks section 1 until a declared path equals path, or is a
// "/"-terminated prefix of it, returning the resolved identifier and,
// for the prefix case, the remaining sub-path (spec §4.I).
func Lookup(raw []byte, path string) (subPath string, identifier string, hasSubPath bool, err error) {
	entries, section2, err := parse(raw)
	if err != nil {
		return "", "", false, err
	}
	ids, err := resolveAll(entries, section2)
	if err != nil {
		return "", "", false, err
	}
	for i, e := range entries {
		if e.path == path {
			return "", ids[i], false, nil
		}
		if strings.HasSuffix(e.path, "/") && strings.HasPrefix(path, e.path) {
			return path[len(e.path):], ids[i], true, nil
		}
	}
	return "", "", false, status.New(status.InDirMissing, "no matching path in directory index")
}

// RawToJSON translates a raw index stream to a path -> identifier mapping,
// with section-2 ids rendered as hex (spec §4.I).
func RawToJSON(raw []byte) (map[string]string, error) {
	entries, section2, err := parse(raw)
	if err != nil {
		return nil, err
	}
	ids, err := resolveAll(entries, section2)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for i, e := range entries {
		out[e.path] = ids[i]
	}
	return out, nil
}
