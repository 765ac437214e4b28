package tree

// PartialIDs implements the two-owned-sequence partial-id model spec §9
// calls for in place of the C original's pointer-to-pointer parameters and
// count array: "model these as two owned sequences of in-progress id
// fragments, swapped at level boundaries; pass one mutable borrow through
// the recursion."
//
// Current holds bytes carried over from a previous payload that have not
// yet completed an idBytes-sized id. Next accumulates the trailing fragment
// left over after parsing a payload, ready to become Current for whatever
// consumes the next payload at the same tree level.
type PartialIDs struct {
	Current []byte
	Next    []byte
}

// ConsumeLevel parses payload as a sequence of idBytes-sized ids, first
// completing any fragment already held in Current, then stores any
// trailing remainder in Next (replacing what Next held). It returns the
// whole ids recovered in payload order, with the one completed from
// Current (when applicable) as the first element. If the payload is too
// short to complete Current, it is appended to Current and nil is returned.
func (p *PartialIDs) ConsumeLevel(payload []byte, idBytes int) [][]byte {
	var ids [][]byte
	i := 0

	if len(p.Current) > 0 {
		need := idBytes - len(p.Current)
		if need > len(payload) {
			// Still incomplete even after this payload; keep accumulating.
			p.Current = append(p.Current, payload...)
			return nil
		}
		completed := append(append([]byte(nil), p.Current...), payload[:need]...)
		ids = append(ids, completed)
		p.Current = nil
		i = need
	}

	for ; i+idBytes <= len(payload); i += idBytes {
		ids = append(ids, append([]byte(nil), payload[i:i+idBytes]...))
	}

	if i < len(payload) {
		p.Next = append([]byte(nil), payload[i:]...)
	}

	return ids
}

// SwapLevel exchanges Current and Next, as required "at every level
// boundary" (spec §4.E), clearing Next so the next ConsumeLevel call starts
// clean.
func (p *PartialIDs) SwapLevel() {
	p.Current, p.Next = p.Next, nil
}

// Pending reports whether either sequence still holds an incomplete
// fragment — used to detect a structurally invalid file whose last id
// never completes.
func (p *PartialIDs) Pending() bool {
	return len(p.Current) > 0 || len(p.Next) > 0
}

// Advance is ConsumeLevel plus the re-arming a caller needs to drive
// PartialIDs payload-by-payload without inspecting Current itself: once
// this payload's bytes are fully accounted for, any trailing fragment
// (left in Next) is promoted into Current so the next payload at this same
// level completes it. If this payload only managed to grow an
// already-in-progress fragment without completing it, Current is left
// exactly as ConsumeLevel set it — swapping here would overwrite it with
// Next's stale (still empty) contents and lose the fragment.
//
// This is the shape spec §4.E's "Chained-tree stitching" describes for
// consuming a chain-of-trees' level-0 child-id list across consecutive
// chain-element root payloads: each payload's content (already stripped of
// its chain-link suffix or trailing metadata) is handed to Advance in
// chain order, and the ids it returns are ready to fetch and recurse into
// immediately — no need to wait for every chain element to be fetched
// first.
func (p *PartialIDs) Advance(payload []byte, idBytes int) [][]byte {
	ids := p.ConsumeLevel(payload, idBytes)
	if len(p.Current) == 0 {
		p.SwapLevel()
	}
	return ids
}
