package send

import (
	"context"
	"time"

	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// submitTx builds, signs, and broadcasts one transaction carrying payload
// as its data output, selecting a UTXO (or using forcedIn, if given) and
// appending a change output (plus whatever extra outputs the caller
// supplied), retrying per spec §4.J's retry table. It returns the new
// transaction's id and the fee actually paid. poolPtr is a pointer to the
// caller's pool field (not just its current value) because handleRetry may
// swap in an entirely new *utxoPool (e.g. MempoolChain's confirmed-only
// refresh) that must remain visible to every later submitTx call in the
// same send, not just the rest of this one's retry loop.
func (p *Pipeline) submitTx(ctx context.Context, poolPtr **utxoPool, satPerByte *int64, payload []byte, forcedIn *UTXO, destAddr string, extra []Output, interval time.Duration) (string, int64, error) {
	conflictAttempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", 0, status.Newf(status.SysError, "send cancelled: %v", err)
		}

		pool := *poolPtr
		in, selected, fee, err := p.selectInput(pool, forcedIn, *satPerByte, len(extra))
		if err != nil {
			return "", 0, err
		}

		committed := fee
		if destAddr != "" {
			committed += DustThreshold
		}
		for _, e := range extra {
			committed += e.Amount
		}
		changeAmount := selected.Amount - committed
		hasChange := changeAmount >= DustThreshold

		changeAddr := ""
		if hasChange || len(extra) > 0 {
			changeAddr, err = p.Signer.GetChangeAddress(ctx)
			if err != nil {
				err = status.Newf(status.RpcError, "get_change_address failed: %v", err)
			}
		}

		if err == nil {
			outs := buildOutputs(payload, destAddr, changeAmount, changeAddr, extra)
			var rawHex string
			rawHex, err = p.Signer.CreateRawTx(ctx, []Input{in}, outs)
			if err == nil {
				var signedHex, txid string
				signedHex, err = p.Signer.SignRawTx(ctx, rawHex)
				if err == nil {
					txid, err = p.Signer.SendRawTx(ctx, signedHex)
					if err == nil {
						if hasChange {
							pool.addChange(UTXO{Txid: txid, Vout: uint32(len(outs) - 1), Amount: changeAmount})
						}
						return txid, fee, nil
					}
				}
			}
		}

		// The selected utxo didn't make it into a broadcast transaction;
		// give it back to the pool before deciding how to retry (unless it
		// was a caller-forced input, which isn't ours to manage).
		if forcedIn == nil {
			pool.available = append(pool.available, selected)
		}

		retry, rerr := p.handleRetry(ctx, err, &pool, satPerByte, &conflictAttempts, interval)
		*poolPtr = pool
		if !retry {
			return "", 0, rerr
		}
	}
}

// selectInput picks the UTXO a transaction will spend: forcedIn if the
// caller pinned one (nametag revision sends), else the pool's
// greedy-largest-first selection. fee is computed against the final
// output count (data + change + len(extra)).
func (p *Pipeline) selectInput(pool *utxoPool, forcedIn *UTXO, satPerByte int64, extraOutputs int) (Input, UTXO, int64, error) {
	numOutputs := 2 + extraOutputs // data output + change
	fee := EstimateTxFee(1, numOutputs, satPerByte)

	if forcedIn != nil {
		return Input{Txid: forcedIn.Txid, Vout: forcedIn.Vout}, *forcedIn, fee, nil
	}

	u, err := pool.selectOne(0, satPerByte)
	if err != nil {
		return Input{}, UTXO{}, 0, err
	}
	return Input{Txid: u.Txid, Vout: u.Vout}, u, fee, nil
}

// buildOutputs assembles a transaction's output list: the data-carrying
// output first, any forced destination or extra (tiny-change) outputs
// next, and a change output last if changeAmount clears dust (spec §4.J:
// "drop dust change (fold into fee)"). Extra outputs with no explicit
// address, and the change output, pay to changeAddr.
func buildOutputs(payload []byte, destAddr string, changeAmount int64, changeAddr string, extra []Output) []Output {
	outs := []Output{{Data: payload}}
	if destAddr != "" {
		outs = append(outs, Output{Address: destAddr, Amount: DustThreshold})
	}
	for _, e := range extra {
		if e.Address == "" {
			e.Address = changeAddr
		}
		outs = append(outs, e)
	}
	if changeAmount >= DustThreshold {
		outs = append(outs, Output{Address: changeAddr, Amount: changeAmount})
	}
	return outs
}

// distribute creates a fan-out "distribution" transaction splitting the
// pool's funds across enough outputs that subsequent single-input
// transactions don't violate the unconfirmed-chain length policy (spec
// §4.J: "UTXO distribution").
func (p *Pipeline) distribute(ctx context.Context, pool *utxoPool, satPerByte *int64, estimatedTxCount int) error {
	fanout := estimatedTxCount
	if fanout > Max0confChainDefault {
		fanout = Max0confChainDefault
	}

	u, err := pool.selectOne(0, *satPerByte)
	if err != nil {
		return err
	}

	fee := EstimateTxFee(1, fanout, *satPerByte)
	perOutput := (u.Amount - fee) / int64(fanout)
	if perOutput < DustThreshold {
		return status.New(status.InsufficientFunds, "balance too low to distribute across the estimated transaction count")
	}

	addr, err := p.Signer.GetChangeAddress(ctx)
	if err != nil {
		return status.Newf(status.RpcError, "distribution get_change_address failed: %v", err)
	}

	outs := make([]Output, fanout)
	for i := range outs {
		outs[i] = Output{Address: addr, Amount: perOutput}
	}

	rawHex, err := p.Signer.CreateRawTx(ctx, []Input{{Txid: u.Txid, Vout: u.Vout}}, outs)
	if err != nil {
		return status.Newf(status.RpcError, "distribution create_raw_tx failed: %v", err)
	}
	signedHex, err := p.Signer.SignRawTx(ctx, rawHex)
	if err != nil {
		return status.Newf(status.RpcError, "distribution sign_raw_tx failed: %v", err)
	}
	txid, err := p.Signer.SendRawTx(ctx, signedHex)
	if err != nil {
		return status.Newf(status.RpcError, "distribution send_raw_tx failed: %v", err)
	}
	metrics.ObserveTransaction(p.sendMetrics, "distribution", 0)

	for i := range outs {
		pool.addChange(UTXO{Txid: txid, Vout: uint32(i), Amount: perOutput})
	}
	return nil
}
