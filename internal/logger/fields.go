package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the retrieval, send,
// and script packages. Use these keys consistently so log lines stay
// queryable across components.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Identifiers
	// ========================================================================
	KeyTxid       = "txid"
	KeyIdentifier = "identifier" // raw identifier string as classified by pkg/identifier
	KeyNametag    = "nametag"
	KeyRevision   = "revision"
	KeyPath       = "path"

	// ========================================================================
	// Codec / traversal
	// ========================================================================
	KeyChainIndex = "chain_index"
	KeyTreeDepth  = "tree_depth"
	KeyFileType   = "file_type"
	KeyProtocol   = "protocol"
	KeySize       = "size"

	// ========================================================================
	// Fetch adapter
	// ========================================================================
	KeyFetchKind  = "fetch_kind" // ByTxid, ByInputTxid, ByName
	KeyBatchSize  = "batch_size"
	KeyBatchIndex = "batch_index"

	// ========================================================================
	// Send pipeline
	// ========================================================================
	KeyTxCount    = "tx_count"
	KeyFeeRate    = "fee_rate_sat_per_byte"
	KeyUtxoCount  = "utxo_count"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"

	// ========================================================================
	// Script VM
	// ========================================================================
	KeyOpcode    = "opcode"
	KeyStackSize = "stack_size"
	KeySinkDepth = "sink_depth"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyOperation  = "operation"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyStatusCode = "status_code"
)

// TraceID returns a slog.Attr for the OpenTelemetry trace ID.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for the OpenTelemetry span ID.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Txid returns a slog.Attr for a 64-char hex transaction id.
func Txid(id string) slog.Attr { return slog.String(KeyTxid, id) }

// Identifier returns a slog.Attr for a raw cashweb identifier string.
func Identifier(id string) slog.Attr { return slog.String(KeyIdentifier, id) }

// Nametag returns a slog.Attr for a nametag name.
func Nametag(name string) slog.Attr { return slog.String(KeyNametag, name) }

// Revision returns a slog.Attr for a nametag revision number.
func Revision(rev int) slog.Attr { return slog.Int(KeyRevision, rev) }

// Path returns a slog.Attr for a directory-index path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// ChainIndex returns a slog.Attr for a chain element's position.
func ChainIndex(i int) slog.Attr { return slog.Int(KeyChainIndex, i) }

// TreeDepth returns a slog.Attr for a tree traversal depth.
func TreeDepth(d uint32) slog.Attr { return slog.Any(KeyTreeDepth, d) }

// FileType returns a slog.Attr for a file's declared metadata type.
func FileType(t uint16) slog.Attr { return slog.Any(KeyFileType, t) }

// Protocol returns a slog.Attr for a protocol version number.
func Protocol(v uint16) slog.Attr { return slog.Any(KeyProtocol, v) }

// Size returns a slog.Attr for a byte size.
func Size(s int) slog.Attr { return slog.Int(KeySize, s) }

// FetchKind returns a slog.Attr for the kind of fetch adapter call.
func FetchKind(kind string) slog.Attr { return slog.String(KeyFetchKind, kind) }

// BatchSize returns a slog.Attr for a fetch batch size.
func BatchSize(n int) slog.Attr { return slog.Int(KeyBatchSize, n) }

// BatchIndex returns a slog.Attr for a fetch batch's position within a split.
func BatchIndex(i int) slog.Attr { return slog.Int(KeyBatchIndex, i) }

// TxCount returns a slog.Attr for a send pipeline's transaction count.
func TxCount(n int) slog.Attr { return slog.Int(KeyTxCount, n) }

// FeeRate returns a slog.Attr for a fee rate in satoshis per byte.
func FeeRate(rate int64) slog.Attr { return slog.Int64(KeyFeeRate, rate) }

// UtxoCount returns a slog.Attr for the number of UTXOs under management.
func UtxoCount(n int) slog.Attr { return slog.Int(KeyUtxoCount, n) }

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr { return slog.Int(KeyMaxRetries, n) }

// Opcode returns a slog.Attr for a script VM opcode name.
func Opcode(name string) slog.Attr { return slog.String(KeyOpcode, name) }

// StackSize returns a slog.Attr for the VM value stack depth.
func StackSize(n int) slog.Attr { return slog.Int(KeyStackSize, n) }

// SinkDepth returns a slog.Attr for the VM scoped-sink stack depth.
func SinkDepth(n int) slog.Attr { return slog.Int(KeySinkDepth, n) }

// Operation returns a slog.Attr for a sub-operation name.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// StatusCode returns a slog.Attr for a unified status code.
func StatusCode(code int) slog.Attr { return slog.Int(KeyStatusCode, code) }
