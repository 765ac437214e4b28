// Package send implements the reverse of the read path: deterministic
// encoding of a byte stream into a chain-of-trees of transactions, with
// UTXO management, fee/change accounting, and recoverable mid-send failure
// (spec §4.J).
package send

import "context"

// UTXO describes one unspent transaction output the Signer knows about.
type UTXO struct {
	Txid   string
	Vout   uint32
	Amount int64 // satoshis
	// Confirmed reports whether this output has at least one confirmation.
	// The pipeline falls back to confirmed-only UTXOs on MempoolChain
	// (spec §4.J retry table).
	Confirmed bool
}

// Input references a UTXO being spent by a transaction under construction.
type Input struct {
	Txid string
	Vout uint32
}

// Output describes one transaction output to create.
type Output struct {
	Address string
	Amount  int64 // satoshis; 0 is valid for an OP_RETURN-style data output
	Data    []byte
}

// Signer is the external RPC collaborator the pipeline drives (spec §6:
// "send adapter"). The concrete JSON-RPC client that talks to a real
// blockchain node is out of scope (spec §1) — this interface is the
// contract it must satisfy; pkg/send/fakesigner is the in-memory reference
// implementation used by tests and by dry-run counting mode.
type Signer interface {
	// ListUnspent returns the wallet's currently spendable outputs.
	ListUnspent(ctx context.Context) ([]UTXO, error)
	// CreateRawTx builds an unsigned transaction spending ins and paying
	// outs, returning its raw hex encoding.
	CreateRawTx(ctx context.Context, ins []Input, outs []Output) (rawTxHex string, err error)
	// SignRawTx signs a raw transaction previously built with CreateRawTx.
	SignRawTx(ctx context.Context, rawTxHex string) (signedTxHex string, err error)
	// SendRawTx broadcasts a signed transaction and returns its txid.
	SendRawTx(ctx context.Context, signedTxHex string) (txid string, err error)
	// EstimateFee returns the current network fee rate in satoshis/byte.
	EstimateFee(ctx context.Context) (satPerByte int64, err error)
	// GetChangeAddress returns a fresh address to receive change outputs.
	GetChangeAddress(ctx context.Context) (address string, err error)
	// LockUnspent reserves utxos so they are not selected by a concurrent
	// wallet operation outside this pipeline's in-process reservation set.
	LockUnspent(ctx context.Context, utxos []UTXO) error
}
