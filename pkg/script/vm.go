// Package script implements the nametag byte-code virtual machine: a tiny
// stack machine that fetches other files, splices content, follows revision
// chains, and emits bytes to an output sink (spec §4.G).
package script

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Host is the capability interface the VM calls out to for anything beyond
// pure stack manipulation. pkg/nametag implements it so the VM never
// imports nametag resolution directly (it runs underneath it).
type Host interface {
	// ReadFile returns the full reconstructed bytes of the file named by
	// txid (WRITEFROMTXID/STOREFROMTXID).
	ReadFile(ctx context.Context, txid string) ([]byte, error)
	// ResolveNametag runs name's latest revision script and returns the
	// bytes it writes (WRITEFROMNAMETAG/STOREFROMNAMETAG). visited carries
	// the circular-reference guard through the recursive call.
	ResolveNametag(ctx context.Context, name string, visited map[string]bool) ([]byte, error)
	// NextRevision returns the script bytes of the revision that follows
	// currentTxid in its nametag's lineage (NEXTREV). It returns
	// status.ScriptRevExhausted if none exists, or the caller pinned an
	// earlier revision that has already been reached.
	NextRevision(ctx context.Context, currentTxid string) (scriptBytes []byte, nextTxid string, err error)
	// PrevRevision returns the script bytes of the revision immediately
	// before currentTxid (WRITEFROMPREV). It returns status.ScriptStructure
	// if currentTxid is already the origin (revision 0) script.
	PrevRevision(ctx context.Context, currentTxid string) (scriptBytes []byte, prevTxid string, err error)
}

// Info accumulates references seen while running in info-only mode instead
// of writing bytes (spec §4.G: "describe a nametag without downloading it").
type Info struct {
	Names []string
	Txids []string
}

// Options configures one VM invocation.
type Options struct {
	// InfoOnly switches every WRITE* into a record-only operation.
	InfoOnly bool
	// Visited is the circular-reference guard: names already in the current
	// call chain. WRITEFROMNAMETAG on a name already present fails
	// CircularRef. Callers running a fresh top-level resolution pass nil or
	// an empty map; recursive calls thread the same map through.
	Visited map[string]bool
}

// VM executes one nametag script revision.
type VM struct {
	host    Host
	out     io.Writer
	infoOnly bool
	info    *Info
	visited map[string]bool

	stack [][]byte
	sinks []*tempSink

	currentTxid string // the revision transaction currently executing, for WRITEFROMPREV's at-revision-0 check
	haveCurrent bool
}

// New creates a VM that writes to out (ignored if opts.InfoOnly is set).
func New(host Host, out io.Writer, opts Options) *VM {
	visited := opts.Visited
	if visited == nil {
		visited = make(map[string]bool)
	}
	vm := &VM{host: host, out: out, infoOnly: opts.InfoOnly, visited: visited}
	if opts.InfoOnly {
		vm.info = &Info{}
	}
	return vm
}

// Info returns the accumulated reference lists. Only meaningful after
// running with Options.InfoOnly set.
func (vm *VM) Info() *Info {
	return vm.info
}

// Run executes program's bytes front to back against currentTxid's
// identity (used for WRITEFROMPREV's revision-0 guard), halting on TERM,
// end of program, or an error.
//
// Per spec §4.G's state machine ("Running → (Retrying_NextRev)* →
// Terminated"), a ScriptStructure error raised while executing a revision's
// own script is caught here and turned into an automatic NEXTREV: the VM
// fetches the next revision and retries against it. If the lineage is
// exhausted while retrying this way, the result is ScriptRetryExhausted —
// distinct from an explicit NEXTREV opcode running off the end of the
// lineage, which surfaces as ScriptRevExhausted instead (spec §4.H step 4).
func (vm *VM) Run(ctx context.Context, program []byte, currentTxid string) error {
	for {
		err := vm.runOnce(ctx, program, currentTxid)
		if err == nil {
			return nil
		}
		if status.CodeOf(err) != status.ScriptStructure {
			return err
		}

		scriptBytes, nextTxid, nerr := vm.host.NextRevision(ctx, currentTxid)
		if nerr != nil {
			if status.CodeOf(nerr) == status.ScriptRevExhausted {
				return status.New(status.ScriptRetryExhausted, "no later revision could recover from a structural script error")
			}
			return nerr
		}
		program, currentTxid = scriptBytes, nextTxid
	}
}

// runOnce executes a single revision's script bytes without catching
// ScriptStructure — that is Run's job, so the auto-NEXTREV retry wraps every
// recursive entry point (WRITEFROMPREV, the explicit NEXTREV opcode) too.
func (vm *VM) runOnce(ctx context.Context, program []byte, currentTxid string) error {
	vm.currentTxid = currentTxid
	vm.haveCurrent = currentTxid != ""

	defer func() {
		// Guaranteed release of any scoped sinks left on the stack by a
		// script that errored or TERM'd without DROPSTORED-ing them.
		vm.sinks = nil
		vm.stack = nil
	}()

	i := 0
	for i < len(program) {
		op := Opcode(program[i])
		i++

		switch {
		case op == OpPushNo:
			// no-op

		case op >= 1 && op <= maxDirectPush:
			n := int(op)
			if i+n > len(program) {
				return status.New(status.ScriptStructure, "PUSHSTR length runs past end of program")
			}
			vm.push(program[i : i+n])
			i += n

		case op == OpTerm:
			return nil

		case op == OpNextRev:
			scriptBytes, nextTxid, err := vm.host.NextRevision(ctx, vm.currentTxid)
			if err != nil {
				return err
			}
			return vm.Run(ctx, scriptBytes, nextTxid)

		case op == OpPushTxid:
			if i+wire.TxidBytes > len(program) {
				return status.New(status.ScriptStructure, "PUSHTXID runs past end of program")
			}
			vm.push([]byte(wire.BytesToHex(program[i : i+wire.TxidBytes])))
			i += wire.TxidBytes

		case op == OpPushChar:
			if err := vm.pushBigEndian(program, &i, 1); err != nil {
				return err
			}

		case op == OpPushShort:
			if err := vm.pushBigEndian(program, &i, 2); err != nil {
				return err
			}

		case op == OpPushInt:
			if err := vm.pushBigEndian(program, &i, 4); err != nil {
				return err
			}

		case op == OpPushStrX:
			n, err := vm.popInt()
			if err != nil {
				return err
			}
			if n < 0 || i+n > len(program) {
				return status.New(status.ScriptStructure, "PUSHSTRX length runs past end of program")
			}
			vm.push(program[i : i+n])
			i += n

		case op == OpWriteFromTxid:
			if err := vm.opWriteFromTxid(ctx); err != nil {
				return err
			}

		case op == OpWriteFromNametag:
			if err := vm.opWriteFromNametag(ctx); err != nil {
				return err
			}

		case op == OpWriteFromPrev:
			if err := vm.opWriteFromPrev(ctx); err != nil {
				return err
			}

		case op == OpStoreFromTxid:
			if err := vm.opStoreFromTxid(ctx); err != nil {
				return err
			}

		case op == OpStoreFromNametag:
			if err := vm.opStoreFromNametag(ctx); err != nil {
				return err
			}

		case op == OpStoreFromPrev:
			if err := vm.opStoreFromPrev(ctx); err != nil {
				return err
			}

		case op == OpSeekStored:
			if err := vm.opSeekStored(); err != nil {
				return err
			}

		case op == OpWriteFromStored:
			if err := vm.opWriteFromStored(); err != nil {
				return err
			}

		case op == OpWriteSomeFromStored:
			if err := vm.opWriteSomeFromStored(); err != nil {
				return err
			}

		case op == OpDropStored:
			if len(vm.sinks) == 0 {
				return status.New(status.ScriptStructure, "DROPSTORED with no stored sink")
			}
			dropped := vm.sinks[len(vm.sinks)-1]
			vm.sinks = vm.sinks[:len(vm.sinks)-1]
			logger.DebugCtx(ctx, "script: dropped scoped sink", "sink", dropped.debugTag, "depth", len(vm.sinks))

		case op == OpWritePathLink:
			if err := vm.opWritePathLink(); err != nil {
				return err
			}

		default:
			return status.Newf(status.ScriptStructure, "unknown opcode 0x%02x", byte(op))
		}
	}
	return nil
}

func (vm *VM) push(v []byte) {
	cp := make([]byte, len(v))
	copy(cp, v)
	vm.stack = append(vm.stack, cp)
}

func (vm *VM) pop() ([]byte, error) {
	if len(vm.stack) == 0 {
		return nil, status.New(status.ScriptStructure, "stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// popInt pops a stack item and parses it as the ascii-hex encoding of a
// big-endian integer, the representation PUSHCHAR/SHORT/INT/PUSHTXID use.
func (vm *VM) popInt() (int, error) {
	v, err := vm.pop()
	if err != nil {
		return 0, err
	}
	raw, err := hex.DecodeString(string(v))
	if err != nil || len(raw) == 0 || len(raw) > 8 {
		return 0, status.New(status.ScriptStructure, "expected an integer value on the stack")
	}
	var padded [8]byte
	copy(padded[8-len(raw):], raw)
	return int(binary.BigEndian.Uint64(padded[:])), nil
}

// pushBigEndian reads n big-endian bytes from program at *i and pushes
// their ascii-hex text (the representation popInt expects back).
func (vm *VM) pushBigEndian(program []byte, i *int, n int) error {
	if *i+n > len(program) {
		return status.Newf(status.ScriptStructure, "push of %d bytes runs past end of program", n)
	}
	vm.push([]byte(wire.BytesToHex(program[*i : *i+n])))
	*i += n
	return nil
}

// activeSink returns the writer new bytes should go to: the top of the
// scoped sink stack if a STORE* frame is open, otherwise the VM's own
// output sink (spec §4.G: "exactly one output sink is active").
func (vm *VM) activeSink() io.Writer {
	if len(vm.sinks) > 0 {
		return vm.sinks[len(vm.sinks)-1]
	}
	return vm.out
}

func (vm *VM) writeOut(p []byte) error {
	if vm.infoOnly {
		return nil
	}
	if _, err := vm.activeSink().Write(p); err != nil {
		return status.Newf(status.Write, "script: sink write failed: %v", err)
	}
	return nil
}
