// Package fakesigner provides an in-memory send.Signer, used by pkg/send's
// own tests and by the pipeline's counting-only mode (spec §9, "pkg/send
// does the same via fakesigner.DryRun"): a Signer that never touches a real
// node, synthesizing deterministic txids so a caller can learn the shape
// (transaction count, fee total) a real send would take without spending
// anything.
package fakesigner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/kentjhall/cashweb-sub000/pkg/send"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// Signer is an in-memory send.Signer backed by a fixed wallet balance. It
// tracks its own unspent set across CreateRawTx/SignRawTx/SendRawTx calls so
// a test (or a dry run) can exercise the full pipeline without a real node.
//
// Every method is safe for the single-goroutine use the send pipeline makes
// of it; Signer additionally serializes access with a mutex so tests can
// inspect state (e.g. Spent) concurrently with a send in flight.
type Signer struct {
	mu sync.Mutex

	// DryRun switches every broadcast to a no-op that fabricates a
	// deterministic, obviously-fake txid instead of tracking real UTXOs,
	// for the pipeline's counting-only mode.
	DryRun bool

	satPerByte    int64
	changeAddress string

	unspent map[string]send.UTXO // keyed by txid:vout
	pending map[string]rawTx     // keyed by rawTxHex, awaiting SignRawTx/SendRawTx
	locked  map[string]bool

	// Broadcast records every payload this signer has sent, in order —
	// the bytes a real node would have stored as transaction outputs.
	// Tests read this to verify round-trip correctness against pkg/chain
	// and pkg/tree.
	Broadcast []BroadcastTx

	nextSerial int
}

// BroadcastTx is one transaction this Signer has accepted via SendRawTx.
type BroadcastTx struct {
	Txid    string
	Inputs  []send.Input
	Outputs []send.Output
}

type rawTx struct {
	ins  []send.Input
	outs []send.Output
}

// New returns a Signer seeded with the given spendable UTXOs, a fixed fee
// rate, and a fixed change address — enough to drive pkg/send's pipeline
// end to end.
func New(utxos []send.UTXO, satPerByte int64, changeAddress string) *Signer {
	s := &Signer{
		satPerByte:    satPerByte,
		changeAddress: changeAddress,
		unspent:       make(map[string]send.UTXO, len(utxos)),
		pending:       make(map[string]rawTx),
		locked:        make(map[string]bool),
	}
	for _, u := range utxos {
		s.unspent[key(u.Txid, u.Vout)] = u
	}
	return s
}

func key(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}

// ListUnspent implements send.Signer.
func (s *Signer) ListUnspent(ctx context.Context) ([]send.UTXO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]send.UTXO, 0, len(s.unspent))
	for k, u := range s.unspent {
		if s.locked[k] {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

// CreateRawTx implements send.Signer: it validates the requested spend
// against the known unspent set and stashes it, keyed by a synthetic raw
// hex string, for SignRawTx to pick up.
func (s *Signer) CreateRawTx(ctx context.Context, ins []send.Input, outs []send.Output) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.DryRun {
		for _, in := range ins {
			if _, ok := s.unspent[key(in.Txid, in.Vout)]; !ok {
				return "", status.Newf(status.RpcResponseError, "fakesigner: %s:%d is not a known unspent output", in.Txid, in.Vout)
			}
		}
	}

	raw := fmt.Sprintf("raw%08d", s.nextSerial)
	s.nextSerial++
	s.pending[raw] = rawTx{ins: ins, outs: outs}
	return raw, nil
}

// SignRawTx implements send.Signer: fakesigner's "signature" is the raw hex
// string unchanged, since nothing downstream of this package ever inspects
// a real signature.
func (s *Signer) SignRawTx(ctx context.Context, rawTxHex string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[rawTxHex]; !ok {
		return "", status.Newf(status.RpcResponseError, "fakesigner: unknown raw tx %q", rawTxHex)
	}
	return rawTxHex, nil
}

// SendRawTx implements send.Signer: it mints a deterministic txid (content
// hash of the inputs/outputs, or in DryRun mode the serial number in hex
// ending in "ffffffff"), retires
// the spent inputs, and credits any value-bearing outputs as new unspent
// outputs.
func (s *Signer) SendRawTx(ctx context.Context, signedTxHex string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.pending[signedTxHex]
	if !ok {
		return "", status.Newf(status.RpcResponseError, "fakesigner: unknown signed tx %q", signedTxHex)
	}
	delete(s.pending, signedTxHex)

	var txid string
	if s.DryRun {
		txid = dryRunTxid(s.nextSerial)
	} else {
		txid = hashTxid(tx.ins, tx.outs, s.nextSerial)
	}
	s.nextSerial++

	s.Broadcast = append(s.Broadcast, BroadcastTx{Txid: txid, Inputs: tx.ins, Outputs: tx.outs})

	if s.DryRun {
		return txid, nil
	}

	for _, in := range tx.ins {
		k := key(in.Txid, in.Vout)
		delete(s.unspent, k)
		delete(s.locked, k)
	}
	for i, o := range tx.outs {
		if o.Amount <= 0 {
			continue // data-carrying or zero-value output, not spendable
		}
		s.unspent[key(txid, uint32(i))] = send.UTXO{
			Txid: txid, Vout: uint32(i), Amount: o.Amount, Confirmed: false,
		}
	}
	return txid, nil
}

// EstimateFee implements send.Signer, returning the fixed rate this Signer
// was constructed with.
func (s *Signer) EstimateFee(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.satPerByte, nil
}

// GetChangeAddress implements send.Signer, returning the fixed address this
// Signer was constructed with.
func (s *Signer) GetChangeAddress(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeAddress, nil
}

// LockUnspent implements send.Signer, marking the given outputs reserved so
// a subsequent ListUnspent call excludes them.
func (s *Signer) LockUnspent(ctx context.Context, utxos []send.UTXO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range utxos {
		s.locked[key(u.Txid, u.Vout)] = true
	}
	return nil
}

// SetFeeRate lets a test change the simulated network fee rate mid-run, to
// exercise the FeeTooLow retry branch.
func (s *Signer) SetFeeRate(satPerByte int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.satPerByte = satPerByte
}

// dryRunTxid synthesizes the obviously-fake, easily-recognized id a
// counting-only send reports instead of a real txid.
func dryRunTxid(serial int) string {
	return fmt.Sprintf("%064x", serial)[:56] + "ffffffff"
}

func hashTxid(ins []send.Input, outs []send.Output, serial int) string {
	h := sha256.New()
	fmt.Fprintf(h, "serial:%d", serial)
	for _, in := range ins {
		fmt.Fprintf(h, "|in:%s:%d", in.Txid, in.Vout)
	}
	for _, o := range outs {
		fmt.Fprintf(h, "|out:%s:%d:%x", o.Address, o.Amount, o.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
