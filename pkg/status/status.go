// Package status provides the unified error taxonomy shared by the fetch,
// send, and script VM paths (spec §4.M).
//
// This is a leaf package with no internal dependencies, so every other
// package in the module can import it without causing an import cycle.
//
// Import graph: status <- everything else
package status

import "fmt"

// Code identifies the kind of failure a core operation reported.
type Code int

const (
	// Ok indicates success. Code's zero value is intentionally not Ok so a
	// zero-valued Error is never mistaken for success; use nil error instead.
	Ok Code = iota + 1

	// DataDirMissing indicates the configured data directory does not exist.
	DataDirMissing
	// BadCall indicates the caller passed invalid arguments.
	BadCall
	// SysError indicates an unexpected local I/O or OS-level failure.
	SysError

	// --- Resolution group (§7): the request names something that does not
	// (yet) exist, or is finite. Caller-reportable, not retried internally. ---

	// FetchMissing indicates a requested id was not found by the fetch adapter.
	FetchMissing
	// InDirMissing indicates a directory-index lookup found no matching path.
	InDirMissing
	// ScriptRevExhausted indicates a script resolution reached the caller's
	// pinned revision and stopped (not an error condition to the caller).
	ScriptRevExhausted
	// ScriptRetryExhausted indicates every revision in a nametag's lineage
	// failed to parse as a valid script.
	ScriptRetryExhausted
	// CircularRef indicates a script referenced a nametag already in its own
	// call chain.
	CircularRef
	// ScriptTerminated indicates a script halted via TERM before producing
	// any output the caller asked for. No package in this module returns
	// it: the script VM treats TERM as a normal halt.
	ScriptTerminated

	// --- Structural group (§7): the encoded content violates the codec.
	// Not retryable. ---

	// FileStructure indicates a payload violates the chain/tree invariants
	// (e.g. a non-chained root whose length isn't a multiple of TXID_CHARS).
	FileStructure
	// FileLength indicates a chain ended before `length` said it should.
	FileLength
	// FileDepth indicates a tree ended before `depth` said it should.
	FileDepth
	// MetadataMissing indicates a payload shorter than METADATA_BYTES was
	// read where a trailer was expected.
	MetadataMissing
	// NotADir indicates a directory-index operation was attempted on a file
	// whose metadata type is not Directory.
	NotADir
	// ScriptStructure indicates a script program is malformed (truncated
	// opcode, out-of-range PUSHSTR length, WRITEFROMPREV at revision 0).
	// Internal to the VM: it triggers an automatic NEXTREV (§4.G) and only
	// surfaces to the caller as ScriptRetryExhausted if the lineage runs out.
	ScriptStructure

	// --- Transient group (§7): I/O or wallet conditions. Retried per the
	// send pipeline's retry table; surfaced as "temporary failure" for
	// reads. ---

	// FetchError indicates the fetch adapter itself failed or returned a
	// malformed response.
	FetchError
	// Write indicates the sink failed to accept bytes.
	Write
	// InputsConflict indicates a chosen UTXO was already spent by a
	// concurrent transaction.
	InputsConflict
	// MempoolChain indicates the unconfirmed-ancestor chain limit was hit.
	MempoolChain
	// FeeTooLow indicates the broadcast transaction's fee rate was rejected.
	FeeTooLow
	// InsufficientFunds indicates the wallet has no UTXOs left to cover the
	// next transaction.
	InsufficientFunds
	// RpcError indicates the signer/broadcaster RPC transport failed.
	RpcError
	// RpcResponseError indicates the signer/broadcaster returned a
	// well-formed but application-level error response.
	RpcResponseError
)

// String returns a human-readable name for the code.
func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case DataDirMissing:
		return "DataDirMissing"
	case BadCall:
		return "BadCall"
	case SysError:
		return "SysError"
	case FetchMissing:
		return "FetchMissing"
	case FetchError:
		return "FetchError"
	case Write:
		return "Write"
	case FileStructure:
		return "FileStructure"
	case FileLength:
		return "FileLength"
	case FileDepth:
		return "FileDepth"
	case MetadataMissing:
		return "MetadataMissing"
	case CircularRef:
		return "CircularRef"
	case InDirMissing:
		return "InDirMissing"
	case NotADir:
		return "NotADir"
	case ScriptStructure:
		return "ScriptStructure"
	case ScriptRevExhausted:
		return "ScriptRevExhausted"
	case ScriptRetryExhausted:
		return "ScriptRetryExhausted"
	case ScriptTerminated:
		return "ScriptTerminated"
	case InputsConflict:
		return "InputsConflict"
	case MempoolChain:
		return "MempoolChain"
	case FeeTooLow:
		return "FeeTooLow"
	case InsufficientFunds:
		return "InsufficientFunds"
	case RpcError:
		return "RpcError"
	case RpcResponseError:
		return "RpcResponseError"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// group classifies a code into one of the three propagation groups (§7).
type group int

const (
	groupTransient group = iota
	groupResolution
	groupStructural
)

func (c Code) group() group {
	switch c {
	case FileStructure, FileLength, FileDepth, MetadataMissing, NotADir, ScriptStructure:
		return groupStructural
	case FetchMissing, InDirMissing, ScriptRevExhausted, ScriptRetryExhausted, CircularRef, ScriptTerminated:
		return groupResolution
	default:
		return groupTransient
	}
}

// Severity ranks a code for the propagation rule in §7: a transient error
// eclipses nothing, a resolution error eclipses transient, and a structural
// error eclipses both. Higher is more severe.
func (c Code) Severity() int {
	return int(c.group())
}

// Worst returns whichever of a and b is more severe per §7's propagation
// rule ("the core always ... returns the most severe status encountered").
// Ok is never more severe than any real failure.
func Worst(a, b Code) Code {
	if a == Ok {
		return b
	}
	if b == Ok {
		return a
	}
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// Error wraps a Code with a human-readable message and optional context,
// modeled on the teacher's StoreError: a small struct with an Error()
// method rather than a family of distinct Go error types per code.
type Error struct {
	Code    Code
	Message string
	// Identifier is the cashweb id the failing operation was working on,
	// when known. Empty if not applicable.
	Identifier string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s (id: %s)", e.Code, e.Message, e.Identifier)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithIdentifier returns a copy of e annotated with the identifier the
// failing operation concerned.
func (e *Error) WithIdentifier(id string) *Error {
	if e == nil {
		return nil
	}
	return &Error{Code: e.Code, Message: e.Message, Identifier: id}
}

// CodeOf extracts the Code from err if it is a *Error, or SysError
// otherwise (a *Error wrapped inside another error is not unwrapped). Used at package boundaries that must always return a
// Code, such as the top-level propagation rule in §7.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var se *Error
	if e, ok := err.(*Error); ok {
		se = e
	} else {
		return SysError
	}
	return se.Code
}

// UserFacing maps err to the top-level presentation rule in §7: any
// resolution-group failure surfaces as "file not found", any transient
// failure that survived the internal retry loops as "temporary failure,
// retry", and everything else (structural and local errors) as its own
// message.
func UserFacing(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsResolution(err):
		return "file not found"
	case IsTransient(err):
		return "temporary failure, retry"
	default:
		return err.Error()
	}
}

// IsTransient returns true if err's code belongs to the transient group
// (§7) and is therefore eligible for the send pipeline's retry table.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return true // unrecognized errors are treated as transient I/O
	}
	return e.Code.group() == groupTransient
}

// IsResolution returns true if err's code belongs to the resolution group.
func IsResolution(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code.group() == groupResolution
}

// IsStructural returns true if err's code belongs to the structural group.
func IsStructural(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code.group() == groupStructural
}
