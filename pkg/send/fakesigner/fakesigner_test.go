package fakesigner

import (
	"context"
	"testing"

	"github.com/kentjhall/cashweb-sub000/pkg/send"
)

func TestSignerRoundTripCreditsChange(t *testing.T) {
	ctx := context.Background()
	seed := []send.UTXO{{Txid: "a1", Vout: 0, Amount: 10000, Confirmed: true}}
	s := New(seed, 1, "addr1")

	before, err := s.ListUnspent(ctx)
	if err != nil || len(before) != 1 {
		t.Fatalf("ListUnspent = %v, %v", before, err)
	}

	raw, err := s.CreateRawTx(ctx, []send.Input{{Txid: "a1", Vout: 0}}, []send.Output{{Data: []byte("hello")}, {Address: "change", Amount: 9000}})
	if err != nil {
		t.Fatalf("CreateRawTx failed: %v", err)
	}
	signed, err := s.SignRawTx(ctx, raw)
	if err != nil {
		t.Fatalf("SignRawTx failed: %v", err)
	}
	txid, err := s.SendRawTx(ctx, signed)
	if err != nil {
		t.Fatalf("SendRawTx failed: %v", err)
	}

	after, err := s.ListUnspent(ctx)
	if err != nil {
		t.Fatalf("ListUnspent failed: %v", err)
	}
	if len(after) != 1 || after[0].Txid != txid || after[0].Vout != 1 || after[0].Amount != 9000 {
		t.Fatalf("unexpected post-send unspent set: %+v", after)
	}
	if len(s.Broadcast) != 1 || s.Broadcast[0].Txid != txid {
		t.Fatalf("Broadcast not recorded correctly: %+v", s.Broadcast)
	}
}

func TestSignerRejectsUnknownInput(t *testing.T) {
	ctx := context.Background()
	s := New(nil, 1, "addr1")
	if _, err := s.CreateRawTx(ctx, []send.Input{{Txid: "missing", Vout: 0}}, nil); err == nil {
		t.Fatal("expected an error spending an unknown input")
	}
}

func TestDryRunNeverMutatesBalance(t *testing.T) {
	ctx := context.Background()
	seed := []send.UTXO{{Txid: "a1", Vout: 0, Amount: 10000, Confirmed: true}}
	s := New(seed, 1, "addr1")
	s.DryRun = true

	raw, err := s.CreateRawTx(ctx, []send.Input{{Txid: "does-not-exist", Vout: 9}}, []send.Output{{Data: []byte("x")}})
	if err != nil {
		t.Fatalf("dry-run CreateRawTx should not validate inputs: %v", err)
	}
	signed, _ := s.SignRawTx(ctx, raw)
	txid, err := s.SendRawTx(ctx, signed)
	if err != nil {
		t.Fatalf("dry-run SendRawTx failed: %v", err)
	}
	if len(txid) != 64 {
		t.Errorf("dry-run txid length = %d, want 64", len(txid))
	}

	after, _ := s.ListUnspent(ctx)
	if len(after) != 1 || after[0].Amount != 10000 {
		t.Errorf("dry-run must not mutate the seeded unspent set: %+v", after)
	}
}

func TestLockUnspentExcludesFromListUnspent(t *testing.T) {
	ctx := context.Background()
	seed := []send.UTXO{{Txid: "a1", Vout: 0, Amount: 10000}, {Txid: "a2", Vout: 0, Amount: 5000}}
	s := New(seed, 1, "addr1")

	if err := s.LockUnspent(ctx, []send.UTXO{{Txid: "a1", Vout: 0}}); err != nil {
		t.Fatalf("LockUnspent failed: %v", err)
	}
	avail, err := s.ListUnspent(ctx)
	if err != nil {
		t.Fatalf("ListUnspent failed: %v", err)
	}
	if len(avail) != 1 || avail[0].Txid != "a2" {
		t.Fatalf("locked utxo still visible: %+v", avail)
	}
}
