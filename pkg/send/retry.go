package send

import (
	"context"
	"time"

	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// defaultRetryInterval is the backoff used by the unbounded retry loops in
// the table below (spec §4.J "Retry policy") when Options.RetryInterval is
// left at its zero value.
const defaultRetryInterval = 200 * time.Millisecond

// maxInputsConflictRetries bounds the InputsConflict branch of the retry
// table: "Re-fetch utxo list, retry (up to 2 times)" (spec §4.J).
const maxInputsConflictRetries = 2

// sleepOrCancel waits d, returning ctx.Err() if ctx is cancelled first
// (spec §5: cancellation is observed at the next adapter/RPC boundary).
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// handleRetry inspects err against spec §4.J's retry table and either
// performs the corresponding recovery action (re-estimating fee,
// refreshing the utxo pool to confirmed-only, blocking for more funds) and
// returns (true, nil) to mean "retry", or returns (false, err) meaning the
// error is not one of the retryable signals and should propagate.
//
// conflictAttempts tracks how many InputsConflict retries have already
// happened for the current transaction attempt, since that branch is
// bounded rather than indefinite.
func (p *Pipeline) handleRetry(ctx context.Context, err error, pool **utxoPool, satPerByte *int64, conflictAttempts *int, interval time.Duration) (retry bool, outErr error) {
	code := status.CodeOf(err)
	metrics.ObserveRetry(p.fetchMetrics, code)

	switch code {
	case status.FeeTooLow:
		newRate, ferr := p.Signer.EstimateFee(ctx)
		if ferr != nil {
			return false, status.Newf(status.RpcError, "estimate_fee failed while recovering from FeeTooLow: %v", ferr)
		}
		*satPerByte = newRate
		return true, nil

	case status.InputsConflict:
		if *conflictAttempts >= maxInputsConflictRetries {
			return false, err
		}
		*conflictAttempts++
		refreshed, rerr := refreshUnspent(ctx, p.Signer, false)
		if rerr != nil {
			return false, rerr
		}
		*pool = refreshed
		return true, nil

	case status.MempoolChain:
		refreshed, rerr := refreshUnspent(ctx, p.Signer, true)
		if rerr != nil {
			return false, rerr
		}
		if len(refreshed.available) == 0 {
			// No confirmed utxos either: sleep until (presumably) a new
			// block arrives, per spec's "sleep until a new block" fallback.
			if serr := sleepOrCancel(ctx, interval); serr != nil {
				return false, status.Newf(status.SysError, "send cancelled while waiting for a new block: %v", serr)
			}
		}
		*pool = refreshed
		return true, nil

	case status.InsufficientFunds:
		if serr := sleepOrCancel(ctx, interval); serr != nil {
			return false, status.Newf(status.SysError, "send cancelled while waiting for balance to increase: %v", serr)
		}
		refreshed, rerr := refreshUnspent(ctx, p.Signer, false)
		if rerr != nil {
			return false, rerr
		}
		*pool = refreshed
		return true, nil

	case status.RpcError, status.RpcResponseError:
		if serr := sleepOrCancel(ctx, interval); serr != nil {
			return false, status.Newf(status.SysError, "send cancelled during rpc retry: %v", serr)
		}
		return true, nil

	default:
		return false, err
	}
}
