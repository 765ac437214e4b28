package send

import (
	"context"
	"sort"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// DustThreshold is the protocol-defined minimum output amount; change below
// this is folded into the fee rather than created (spec §4.J: "drop dust
// change").
const DustThreshold int64 = 546

// TinyChangeAmount is the dust-plus-one amount appended to the last
// transaction of a nametag revision send so a future revision has
// something to spend (spec §4.J: "forced input/output").
const TinyChangeAmount int64 = DustThreshold + 1

// baseTxBytes and perInputBytes/perOutputBytes are rough fee-estimation
// constants, mirroring the greedy-largest-first sizing the original
// wallet-side cost counter used (spec §4.J: "pad for an extra hypothetical
// input when cost-counting").
const (
	baseTxBytes    = 10
	perInputBytes  = 148
	perOutputBytes = 34
)

// utxoPool holds the UTXOs reserved in-process for the lifetime of a single
// send invocation (spec §4.J: "UTXOs are tracked in-process across the
// send; each send consumes one from the local reservation and appends
// change as a new reservation").
type utxoPool struct {
	available []UTXO
}

func newUTXOPool(utxos []UTXO) *utxoPool {
	sorted := append([]UTXO(nil), utxos...)
	// Greedy largest-first (spec §1 non-goal: "no UTXO selection strategy
	// beyond greedy-largest-first").
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })
	return &utxoPool{available: sorted}
}

// selectOne pops the largest available UTXO able to cover need satoshis of
// outputs plus estimated fee, or returns InsufficientFunds.
func (p *utxoPool) selectOne(need, satPerByte int64) (UTXO, error) {
	feeWithExtraInput := EstimateTxFee(1, 2, satPerByte)
	for i, u := range p.available {
		if u.Amount >= need+feeWithExtraInput {
			p.available = append(p.available[:i], p.available[i+1:]...)
			return u, nil
		}
	}
	return UTXO{}, status.New(status.InsufficientFunds, "no single utxo covers the required amount plus fee")
}

// addChange appends a change output's eventual UTXO back into the pool so
// a later step in the same send can spend it without a fresh
// ListUnspent round-trip.
func (p *utxoPool) addChange(u UTXO) {
	if u.Amount < DustThreshold {
		return // dust change folded into fee, never reserved (spec §4.J)
	}
	// Keep the pool sorted largest-first as new change arrives.
	idx := sort.Search(len(p.available), func(i int) bool { return p.available[i].Amount <= u.Amount })
	p.available = append(p.available, UTXO{})
	copy(p.available[idx+1:], p.available[idx:])
	p.available[idx] = u
}

// EstimateTxFee estimates the fee, in satoshis, for a transaction with the
// given input/output counts at the given fee rate (spec §4.J: "Estimate
// per-byte fee once per send ... pad for an extra hypothetical input when
// cost-counting").
func EstimateTxFee(numInputs, numOutputs int, satPerByte int64) int64 {
	size := int64(baseTxBytes + numInputs*perInputBytes + numOutputs*perOutputBytes)
	return size * satPerByte
}

// refreshUnspent reloads the wallet's UTXO set from the signer, optionally
// restricted to confirmed outputs (spec §4.J retry table: "MempoolChainTooLong
// -> retry with confirmed-only UTXOs").
func refreshUnspent(ctx context.Context, signer Signer, confirmedOnly bool) (*utxoPool, error) {
	all, err := signer.ListUnspent(ctx)
	if err != nil {
		return nil, status.Newf(status.RpcError, "list_unspent failed: %v", err)
	}
	if !confirmedOnly {
		return newUTXOPool(all), nil
	}
	filtered := make([]UTXO, 0, len(all))
	for _, u := range all {
		if u.Confirmed {
			filtered = append(filtered, u)
		}
	}
	return newUTXOPool(filtered), nil
}
