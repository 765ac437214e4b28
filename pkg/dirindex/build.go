package dirindex

import (
	"io"
	"sort"
	"strings"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// JSONToRaw is the inverse of RawToJSON (SPEC_FULL.md §4.I, spec §8
// testable property 3: "dirindex_raw_to_json ∘ dirindex_json_to_raw =
// identity"): it writes paths as a raw index stream to w, inlining every
// identifier on its resolution line (no bulk slots — a JSON object has no
// way to ask for one). Entries are written in sorted path order for
// determinism.
func JSONToRaw(paths map[string]string, w io.Writer) error {
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var section1 strings.Builder
	for _, p := range keys {
		section1.WriteString(p)
		section1.WriteByte('\n')
		section1.WriteString(paths[p])
		section1.WriteByte('\n')
	}
	section1.WriteByte('\n')

	if _, err := io.WriteString(w, section1.String()); err != nil {
		return status.Newf(status.Write, "dirindex: write failed: %v", err)
	}
	return nil
}

// JSONToRawBulk is JSONToRaw's bulk-aware counterpart: every identifier in
// bulkPaths is stored in section 2 rather than inlined, in path-sorted
// declaration order (spec §4.I: "the k-th path that defers to section 2
// claims the k-th binary record"). Use this when building an index that
// should exercise the binary section; JSONToRaw alone can only produce an
// all-inline stream.
func JSONToRawBulk(inlinePaths map[string]string, bulkPaths map[string]string, w io.Writer) error {
	keys := make([]string, 0, len(inlinePaths)+len(bulkPaths))
	for p := range inlinePaths {
		keys = append(keys, p)
	}
	for p := range bulkPaths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var section1 strings.Builder
	var section2 []byte
	for _, p := range keys {
		section1.WriteString(p)
		section1.WriteByte('\n')
		if id, ok := bulkPaths[p]; ok {
			section1.WriteString(bulkMarker)
			section1.WriteByte('\n')
			raw, err := wire.HexToBytes(id)
			if err != nil || len(raw) != wire.TxidBytes {
				return status.Newf(status.BadCall, "bulk identifier for %q is not a valid txid", p)
			}
			section2 = append(section2, raw...)
			continue
		}
		section1.WriteString(inlinePaths[p])
		section1.WriteByte('\n')
	}
	section1.WriteByte('\n')

	if _, err := io.WriteString(w, section1.String()); err != nil {
		return status.Newf(status.Write, "dirindex: write failed: %v", err)
	}
	if _, err := w.Write(section2); err != nil {
		return status.Newf(status.Write, "dirindex: write failed: %v", err)
	}
	return nil
}
