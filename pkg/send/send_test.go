package send

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/kentjhall/cashweb-sub000/pkg/chain"
	"github.com/kentjhall/cashweb-sub000/pkg/fetch/memadapter"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/recovery"
	"github.com/kentjhall/cashweb-sub000/pkg/send/fakesigner"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

func fundedSigner() *fakesigner.Signer {
	utxos := make([]UTXO, 20)
	for i := range utxos {
		utxos[i] = UTXO{Txid: hex.EncodeToString(bytes.Repeat([]byte{byte(i + 1)}, 32)), Vout: 0, Amount: 1_000_000, Confirmed: true}
	}
	return fakesigner.New(utxos, 1, "bitcoincash:qdest0000000000000000000000000000000000")
}

// replay feeds every transaction a send produced into an adapter so the
// read path can reconstruct the original bytes from the result.
func replay(t *testing.T, signer *fakesigner.Signer) *memadapter.Adapter {
	t.Helper()
	adapter := memadapter.New()
	for _, tx := range signer.Broadcast {
		for _, out := range tx.Outputs {
			if len(out.Data) > 0 {
				adapter.PutPayload(tx.Txid, hex.EncodeToString(out.Data))
			}
		}
	}
	return adapter
}

func TestSendChainRoundTrip(t *testing.T) {
	signer := fundedSigner()
	p := New(signer)

	proto := wire.ProtocolV0
	caps := segmentCapacities(proto, 0)
	data := bytes.Repeat([]byte{0xAB}, caps.rootSingle+17) // one byte over the single-tx threshold forces a chain

	res, err := p.Send(context.Background(), bytes.NewReader(data), Options{Protocol: proto, MaxTreeDepth: 0, Type: metadata.TypeOpaque})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	adapter := replay(t, signer)
	var out bytes.Buffer
	meta, err := chain.Walk(context.Background(), adapter, res.RootTxid, &out)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", out.Len(), len(data))
	}
	if meta.Length != 1 {
		t.Errorf("Length = %d, want 1", meta.Length)
	}
	if meta.Type != metadata.TypeOpaque {
		t.Errorf("Type = %d, want TypeOpaque", meta.Type)
	}
	if res.TxCount != 2 {
		t.Errorf("TxCount = %d, want 2", res.TxCount)
	}
}

func TestSendTreeRoundTrip(t *testing.T) {
	signer := fundedSigner()
	p := New(signer)

	proto := wire.ProtocolV0
	data := bytes.Repeat([]byte{0xCD}, proto.TxDataBytes*3+5) // several leaves under one tree root

	res, err := p.Send(context.Background(), bytes.NewReader(data), Options{Protocol: proto, MaxTreeDepth: 1, Type: metadata.TypeDirectory})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	adapter := replay(t, signer)
	var out bytes.Buffer
	meta, err := chain.Walk(context.Background(), adapter, res.RootTxid, &out)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", out.Len(), len(data))
	}
	if meta.Depth != 1 {
		t.Errorf("Depth = %d, want 1", meta.Depth)
	}
	if meta.Type != metadata.TypeDirectory {
		t.Errorf("Type = %d, want TypeDirectory", meta.Type)
	}
}

func TestSendEmptyFileIsSingleTransaction(t *testing.T) {
	signer := fundedSigner()
	p := New(signer)

	res, err := p.Send(context.Background(), bytes.NewReader(nil), Options{Protocol: wire.ProtocolV0, MaxTreeDepth: 0, Type: metadata.TypeOpaque})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.TxCount != 1 {
		t.Errorf("TxCount = %d, want 1 for an empty file", res.TxCount)
	}
}

func TestSendSingleTransactionBoundary(t *testing.T) {
	// A file of exactly TX_DATA_BYTES - METADATA_BYTES is a single
	// transaction; one byte more forces a two-element chain.
	signer := fundedSigner()
	p := New(signer)

	proto := wire.ProtocolV0
	caps := segmentCapacities(proto, 0)
	data := bytes.Repeat([]byte{0x42}, caps.rootSingle)

	res, err := p.Send(context.Background(), bytes.NewReader(data), Options{Protocol: proto, MaxTreeDepth: 0, Type: metadata.TypeOpaque})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.TxCount != 1 {
		t.Errorf("TxCount = %d, want 1 at the single-transaction threshold", res.TxCount)
	}

	signer2 := fundedSigner()
	p2 := New(signer2)
	res2, err := p2.Send(context.Background(), bytes.NewReader(append(data, 0x42)), Options{Protocol: proto, MaxTreeDepth: 0, Type: metadata.TypeOpaque})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res2.TxCount != 2 {
		t.Errorf("TxCount = %d, want 2 one byte over the threshold", res2.TxCount)
	}
}

func TestSendDryRunDoesNotTouchBalance(t *testing.T) {
	signer := fundedSigner()
	signer.DryRun = true
	p := New(signer)

	proto := wire.ProtocolV0
	caps := segmentCapacities(proto, 0)
	data := bytes.Repeat([]byte{0x11}, caps.middle*3)

	before, err := signer.ListUnspent(context.Background())
	if err != nil {
		t.Fatalf("ListUnspent failed: %v", err)
	}

	res, err := p.Send(context.Background(), bytes.NewReader(data), Options{Protocol: proto, MaxTreeDepth: 0, Type: metadata.TypeOpaque})
	if err != nil {
		t.Fatalf("dry-run Send failed: %v", err)
	}
	if res.TxCount < 3 {
		t.Errorf("TxCount = %d, want at least 3 for a %d-byte file", res.TxCount, len(data))
	}

	after, err := signer.ListUnspent(context.Background())
	if err != nil {
		t.Fatalf("ListUnspent failed: %v", err)
	}
	if len(before) != len(after) {
		t.Errorf("dry-run mutated the unspent set: before=%d after=%d", len(before), len(after))
	}
}

func TestSendResumeLinksToAlreadyBroadcastTail(t *testing.T) {
	// Simulate a send that got the chain's tail out before failing: the
	// checkpoint carries the untransmitted head plus the broadcast count
	// and link txid. Resuming must produce a root whose chain walks
	// through the resumed elements into the pre-existing tail.
	signer := fundedSigner()
	p := New(signer)

	proto := wire.ProtocolV0
	head := bytes.Repeat([]byte{0xA1}, 50)
	tail := bytes.Repeat([]byte{0xB2}, 70)
	tailTxid := hex.EncodeToString(bytes.Repeat([]byte{0x77}, wire.TxidBytes))

	stream := &recovery.Stream{
		Type:           uint16(metadata.TypeOpaque),
		MaxTreeDepth:   0,
		SavedTreeDepth: 0,
		Body:           encodeCheckpointBody(1, tailTxid, head),
	}

	res, err := p.Send(context.Background(), bytes.NewReader(nil), Options{Protocol: proto, Resume: stream})
	if err != nil {
		t.Fatalf("resumed Send failed: %v", err)
	}
	if res.TxCount != 1 {
		t.Errorf("TxCount = %d, want 1 (only the head remained)", res.TxCount)
	}

	adapter := replay(t, signer)
	adapter.PutPayload(tailTxid, hex.EncodeToString(tail))

	var out bytes.Buffer
	meta, err := chain.Walk(context.Background(), adapter, res.RootTxid, &out)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if meta.Length != 1 {
		t.Errorf("Length = %d, want 1 (one resumed element plus the pre-existing tail)", meta.Length)
	}
	want := append(append([]byte(nil), head...), tail...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", out.Len(), len(want))
	}
}

func TestCheckpointBodyRoundTrip(t *testing.T) {
	link := hex.EncodeToString(bytes.Repeat([]byte{0x55}, wire.TxidBytes))
	data := []byte("still unsent")

	sent, gotLink, gotData, err := decodeCheckpointBody(encodeCheckpointBody(3, link, data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sent != 3 || gotLink != link || !bytes.Equal(gotData, data) {
		t.Errorf("round trip mismatch: sent=%d link=%q data=%q", sent, gotLink, gotData)
	}

	sent, gotLink, gotData, err = decodeCheckpointBody(encodeCheckpointBody(0, "", data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sent != 0 || gotLink != "" || !bytes.Equal(gotData, data) {
		t.Errorf("round trip mismatch: sent=%d link=%q data=%q", sent, gotLink, gotData)
	}
}

func TestSegmentCapacitiesReservesPositionalSuffixes(t *testing.T) {
	proto := wire.ProtocolV0
	caps := segmentCapacities(proto, 0)
	if caps.rootSingle != proto.TxDataBytes-wire.MetadataBytes {
		t.Errorf("rootSingle = %d, want %d", caps.rootSingle, proto.TxDataBytes-wire.MetadataBytes)
	}
	if caps.rootChained != proto.TxDataBytes-wire.MetadataBytes-wire.TxidBytes {
		t.Errorf("rootChained = %d, want %d", caps.rootChained, proto.TxDataBytes-wire.MetadataBytes-wire.TxidBytes)
	}
	if caps.middle != proto.TxDataBytes-wire.TxidBytes {
		t.Errorf("middle = %d, want %d", caps.middle, proto.TxDataBytes-wire.TxidBytes)
	}
	if caps.tail != proto.TxDataBytes {
		t.Errorf("tail = %d, want %d", caps.tail, proto.TxDataBytes)
	}
}

func TestChunkSegmentsNeverEmitsEmptySegment(t *testing.T) {
	proto := wire.ProtocolV0
	caps := segmentCapacities(proto, 0)

	// A length that is an exact multiple of the tail capacity would leave a
	// zero-byte tail under naive uniform chunking (spec §8's "no empty
	// payload" boundary); the positional capacities make that impossible.
	for _, n := range []int{0, 1, caps.rootSingle, caps.rootSingle + 1, proto.TxDataBytes * 2, proto.TxDataBytes * 3} {
		segments := chunkSegments(bytes.Repeat([]byte{0x01}, n), caps, false)
		total := 0
		for i, seg := range segments {
			if len(seg) == 0 && n > 0 {
				t.Errorf("n=%d: segment %d is empty", n, i)
			}
			total += len(seg)
		}
		if total != n {
			t.Errorf("n=%d: segments sum to %d", n, total)
		}
	}
}
