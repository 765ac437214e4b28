// Package nametag resolves a human-readable name (optionally pinned to a
// specific revision) to the bytes its bound script produces, running the
// script VM against the name's revision lineage (spec §4.H).
package nametag

import (
	"bytes"
	"context"
	"io"

	"github.com/kentjhall/cashweb-sub000/pkg/chain"
	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/script"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// LatestRevision requests the newest revision in a name's lineage rather
// than a specific pinned one.
const LatestRevision = -1

// Resolver runs nametag scripts against a fetch adapter.
type Resolver struct {
	Adapter fetch.Adapter
}

// New returns a Resolver backed by adapter.
func New(adapter fetch.Adapter) *Resolver {
	return &Resolver{Adapter: adapter}
}

// Resolve locates name's origin revision (spec §4.H step 1), runs its
// script, following NEXTREV until pinnedRevision is reached (or the
// lineage ends), and writes the result to sink.
func (r *Resolver) Resolve(ctx context.Context, name string, pinnedRevision int, sink io.Writer) error {
	content, err := r.resolveInternal(ctx, name, pinnedRevision, make(map[string]bool))
	if err != nil {
		return err
	}
	_, err = sink.Write(content)
	return err
}

// Info describes name's lineage without downloading referenced content
// (spec §4.G: "info-only mode").
func (r *Resolver) Info(ctx context.Context, name string, pinnedRevision int) (*script.Info, error) {
	originTxid, program, err := r.findOrigin(ctx, name)
	if err != nil {
		return nil, err
	}
	sess := &session{adapter: r.Adapter, pinnedRevision: pinnedRevision}
	vm := script.New(sess, io.Discard, script.Options{InfoOnly: true, Visited: map[string]bool{name: true}})
	err = vm.Run(ctx, program, originTxid)
	if status.CodeOf(err) == status.ScriptRevExhausted {
		err = nil
	}
	return vm.Info(), err
}

func (r *Resolver) resolveInternal(ctx context.Context, name string, pinnedRevision int, visited map[string]bool) ([]byte, error) {
	originTxid, program, err := r.findOrigin(ctx, name)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	sess := &session{adapter: r.Adapter, pinnedRevision: pinnedRevision, visited: visited}
	vm := script.New(sess, &out, script.Options{Visited: visited})
	err = vm.Run(ctx, program, originTxid)
	if status.CodeOf(err) == status.ScriptRevExhausted {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// findOrigin implements spec §4.H step 1: probe ByName claims in
// confirmation order, skipping any that don't parse as a valid script,
// until one does.
func (r *Resolver) findOrigin(ctx context.Context, name string) (txid string, program []byte, err error) {
	for nth := 1; ; nth++ {
		results, ferr := r.Adapter.Fetch(ctx, []fetch.Request{{ID: name, Nth: nth}}, fetch.ByName)
		if ferr != nil {
			if se, ok := ferr.(*status.Error); ok && se.Code == status.FetchMissing {
				if se.Identifier == name {
					// No more claims exist at all.
					return "", nil, status.Newf(status.ScriptRetryExhausted, "no claim for nametag %q parsed as a valid script", name)
				}
				continue // this claim's own payload couldn't be fetched: skip it
			}
			return "", nil, ferr
		}
		res := results[0]
		body, derr := readScript(ctx, r.Adapter, res.OriginTxid, res.PayloadHex)
		if derr != nil {
			continue // unparsable claim: skip silently (spec §4.H step 1)
		}
		return res.OriginTxid, body, nil
	}
}

// readScript validates that the file rooted at txid carries a parseable
// trailer (spec §4.H: "verify the metadata parses") and returns its full
// content — the revision's script bytes. payloadHex is the root payload the
// caller already fetched; a single-element flat file is decoded from it
// directly, anything longer re-enters the chain walk.
func readScript(ctx context.Context, adapter fetch.Adapter, txid, payloadHex string) ([]byte, error) {
	payload, err := wire.HexToBytes(payloadHex)
	if err != nil {
		return nil, status.New(status.FileStructure, "claim payload is not valid hex")
	}
	meta, err := metadata.ReadTrailer(payload)
	if err != nil {
		return nil, err
	}
	if meta.Length == 0 && !meta.IsTree() {
		return payload[:len(payload)-wire.MetadataBytes], nil
	}
	var out bytes.Buffer
	if _, err := chain.Walk(ctx, adapter, txid, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// session is the per-resolution script.Host: it carries the revision
// lineage walked so far so NEXTREV/WRITEFROMPREV can move forward and
// backward without corrupting state shared across concurrent resolutions.
type session struct {
	adapter fetch.Adapter
	visited map[string]bool

	pinnedRevision  int
	currentRevision int
	lineage         []string // revision txids visited so far, oldest first
}

// ReadFile implements script.Host. The trailer rides on the root payload,
// so a bare txid is all chain.Walk needs to reconstruct the whole file.
func (s *session) ReadFile(ctx context.Context, txid string) ([]byte, error) {
	var out bytes.Buffer
	if _, err := chain.Walk(ctx, s.adapter, txid, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ResolveNametag implements script.Host.
func (s *session) ResolveNametag(ctx context.Context, name string, visited map[string]bool) ([]byte, error) {
	r := &Resolver{Adapter: s.adapter}
	return r.resolveInternal(ctx, name, LatestRevision, visited)
}

// NextRevision implements script.Host by walking the revision chain
// forward via ByInputTxid (spec §4.H step 3), honoring pinnedRevision
// (spec §4.H step 4: surfaced as ScriptRevExhausted once reached).
func (s *session) NextRevision(ctx context.Context, currentTxid string) ([]byte, string, error) {
	if s.pinnedRevision != LatestRevision && s.currentRevision >= s.pinnedRevision {
		return nil, "", status.New(status.ScriptRevExhausted, "reached the caller's pinned revision")
	}
	results, err := s.adapter.Fetch(ctx, []fetch.Request{{ID: currentTxid}}, fetch.ByInputTxid)
	if err != nil {
		if status.CodeOf(err) == status.FetchMissing {
			return nil, "", status.New(status.ScriptRevExhausted, "no further revision")
		}
		return nil, "", err
	}
	body, err := readScript(ctx, s.adapter, results[0].OriginTxid, results[0].PayloadHex)
	if err != nil {
		return nil, "", status.New(status.ScriptStructure, "next revision did not parse as a valid script")
	}
	s.lineage = append(s.lineage, currentTxid)
	s.currentRevision++
	return body, results[0].OriginTxid, nil
}

// PrevRevision implements script.Host by walking back along the lineage
// recorded as NextRevision advanced through it (spec §4.G: "Re-execute the
// script of revision (current−1)"). The lineage is searched, not popped:
// a script may invoke WRITEFROMPREV more than once, and a nested re-run of
// revision N-1 asking for its own previous revision must land on N-2.
func (s *session) PrevRevision(ctx context.Context, currentTxid string) ([]byte, string, error) {
	idx := len(s.lineage) // currentTxid is the newest revision unless found below
	for i, t := range s.lineage {
		if t == currentTxid {
			idx = i
			break
		}
	}
	if idx == 0 {
		return nil, "", status.New(status.ScriptStructure, "WRITEFROMPREV at revision 0")
	}
	prevTxid := s.lineage[idx-1]
	results, err := s.adapter.Fetch(ctx, []fetch.Request{{ID: prevTxid}}, fetch.ByTxid)
	if err != nil {
		return nil, "", err
	}
	body, err := readScript(ctx, s.adapter, prevTxid, results[0].PayloadHex)
	if err != nil {
		return nil, "", err
	}
	return body, prevTxid, nil
}
