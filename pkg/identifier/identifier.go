// Package identifier classifies cashweb identifier strings into their three
// kinds — txid, nametag-id, path-id — per spec §3 and §4.C.
package identifier

import (
	"strconv"
	"strings"

	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Kind enumerates the identifier shapes Classify can produce.
type Kind int

const (
	// Invalid means the string did not parse as any recognized kind.
	Invalid Kind = iota
	// Txid is a bare 64-char lowercase-or-mixed-case hex transaction id.
	Txid
	// Nametag is a "~name" or "N~name" reference.
	Nametag
	// Path is any identifier followed by "/<slash-separated path>".
	Path
)

// LatestRevision is the sentinel Revision value meaning "no explicit
// revision was given; resolve to the latest" (spec §4.C).
const LatestRevision = -1

// MaxNameLength is the default maximum byte length of a nametag name
// (spec §3: "≤ a fixed maximum, default 64 chars, bytes allowed").
const MaxNameLength = 64

// Identifier is the parsed form of a cashweb identifier string.
type Identifier struct {
	Kind Kind

	// Txid is set when Kind is Txid, or is the inner txid of a Path whose
	// prefix was a bare txid.
	Txid string

	// Revision and Name are set when Kind is Nametag, or when a Path's
	// prefix was a nametag.
	Revision int // LatestRevision if omitted
	Name     string

	// Inner is the identifier string covering everything before the path
	// separator, when Kind is Path. It is itself re-classifiable.
	Inner string
	// SubPath is everything after the first unescaped "/" that isn't part
	// of the nametag prefix, when Kind is Path.
	SubPath string
}

// Classify parses a raw identifier string, returning Kind Invalid (with no
// error) if the string matches none of the recognized shapes. Classify
// never touches the network — it is pure string parsing.
func Classify(s string) Identifier {
	if s == "" {
		return Identifier{Kind: Invalid}
	}

	inner, subPath, hasPath := splitPath(s)
	if hasPath {
		id := classifyInner(inner)
		if id.Kind == Invalid {
			return Identifier{Kind: Invalid}
		}
		id.Kind = Path
		id.Inner = inner
		id.SubPath = subPath
		return id
	}

	return classifyInner(s)
}

// classifyInner classifies a string known not to contain a path suffix.
func classifyInner(s string) Identifier {
	if wire.IsHex(s, wire.TxidBytes) {
		return Identifier{Kind: Txid, Txid: strings.ToLower(s)}
	}
	if strings.HasPrefix(s, "~") {
		return parseNametag(s[1:])
	}
	return parseNametagWithRevision(s)
}

// parseNametagWithRevision handles the "N~name" form, where the "~" may
// appear after a leading decimal revision rather than at position 0.
func parseNametagWithRevision(s string) Identifier {
	idx := strings.IndexByte(s, '~')
	if idx <= 0 {
		return Identifier{Kind: Invalid}
	}
	revStr, name := s[:idx], s[idx+1:]
	rev, err := strconv.Atoi(revStr)
	if err != nil || rev < 0 {
		return Identifier{Kind: Invalid}
	}
	if !validName(name) {
		return Identifier{Kind: Invalid}
	}
	return Identifier{Kind: Nametag, Revision: rev, Name: name}
}

// parseNametag handles the "~name" form (no explicit revision).
func parseNametag(name string) Identifier {
	if !validName(name) {
		return Identifier{Kind: Invalid}
	}
	return Identifier{Kind: Nametag, Revision: LatestRevision, Name: name}
}

func validName(name string) bool {
	return len(name) > 0 && len(name) <= MaxNameLength
}

// splitPath implements spec §4.C's "leftmost-first" rule: the first "/" not
// part of the nametag prefix splits inner-id from path. A nametag prefix is
// either "~" or "N~"; the "/" that matters is the first one after that
// prefix (or at position 0 for a bare txid).
func splitPath(s string) (inner, path string, ok bool) {
	start := 0
	if strings.HasPrefix(s, "~") {
		start = 1
	} else if idx := strings.IndexByte(s, '~'); idx > 0 {
		if _, err := strconv.Atoi(s[:idx]); err == nil {
			start = idx + 1
		}
	}
	if start > len(s) {
		return "", "", false
	}
	rest := s[start:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return s, "", false
	}
	return s[:start+slash], rest[slash+1:], true
}

// String renders id back into its canonical identifier string form.
func (id Identifier) String() string {
	var base string
	switch id.Kind {
	case Txid:
		base = id.Txid
	case Nametag:
		if id.Revision == LatestRevision {
			base = "~" + id.Name
		} else {
			base = strconv.Itoa(id.Revision) + "~" + id.Name
		}
	case Path:
		return id.Inner + "/" + id.SubPath
	default:
		return ""
	}
	return base
}
