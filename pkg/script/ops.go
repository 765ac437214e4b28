package script

import (
	"context"
	"io"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

func (vm *VM) opWriteFromTxid(ctx context.Context) error {
	txidItem, err := vm.pop()
	if err != nil {
		return err
	}
	txid := string(txidItem)

	if vm.infoOnly {
		vm.info.Txids = append(vm.info.Txids, txid)
		return nil
	}
	content, err := vm.host.ReadFile(ctx, txid)
	if err != nil {
		return err
	}
	return vm.writeOut(content)
}

func (vm *VM) opWriteFromNametag(ctx context.Context) error {
	nameItem, err := vm.pop()
	if err != nil {
		return err
	}
	name := string(nameItem)

	if vm.visited[name] {
		return status.Newf(status.CircularRef, "nametag %q already in resolution chain", name)
	}

	if vm.infoOnly {
		vm.info.Names = append(vm.info.Names, name)
		return nil
	}

	vm.visited[name] = true
	content, err := vm.host.ResolveNametag(ctx, name, vm.visited)
	delete(vm.visited, name)
	if err != nil {
		return err
	}
	return vm.writeOut(content)
}

func (vm *VM) opWriteFromPrev(ctx context.Context) error {
	if !vm.haveCurrent {
		return status.New(status.ScriptStructure, "WRITEFROMPREV at revision 0")
	}
	scriptBytes, prevTxid, err := vm.host.PrevRevision(ctx, vm.currentTxid)
	if err != nil {
		return err
	}
	sub := New(vm.host, vm.activeSink(), Options{InfoOnly: vm.infoOnly, Visited: vm.visited})
	sub.info = vm.info
	if err := sub.Run(ctx, scriptBytes, prevTxid); err != nil {
		return err
	}
	return nil
}

func (vm *VM) opStoreFromTxid(ctx context.Context) error {
	vm.pushTempSink(ctx)
	return vm.opWriteFromTxid(ctx)
}

func (vm *VM) opStoreFromNametag(ctx context.Context) error {
	vm.pushTempSink(ctx)
	return vm.opWriteFromNametag(ctx)
}

func (vm *VM) opStoreFromPrev(ctx context.Context) error {
	vm.pushTempSink(ctx)
	return vm.opWriteFromPrev(ctx)
}

// pushTempSink opens a new scoped STORE* sink and logs its debug tag so a
// SEEKSTORED/DROPSTORED bug report can be correlated back to the opcode
// that created it.
func (vm *VM) pushTempSink(ctx context.Context) {
	sink := newTempSink()
	vm.sinks = append(vm.sinks, sink)
	logger.DebugCtx(ctx, "script: opened scoped sink", "sink", sink.debugTag, "depth", len(vm.sinks))
}

func (vm *VM) opSeekStored() error {
	if len(vm.sinks) == 0 {
		return status.New(status.ScriptStructure, "SEEKSTORED with no stored sink")
	}
	offset, err := vm.popInt()
	if err != nil {
		return err
	}
	whence, err := vm.popInt()
	if err != nil {
		return err
	}
	return vm.sinks[len(vm.sinks)-1].seek(Whence(whence), offset)
}

// callerSink returns the sink one level below the current top of the
// scoped sink stack — "the caller's sink" that WRITEFROMSTORED and
// WRITESOMEFROMSTORED copy into (spec §4.G).
func (vm *VM) callerSink() (io.Writer, error) {
	if len(vm.sinks) == 0 {
		return nil, status.New(status.ScriptStructure, "WRITEFROMSTORED with no stored sink")
	}
	if len(vm.sinks) > 1 {
		return vm.sinks[len(vm.sinks)-2], nil
	}
	return vm.out, nil
}

func (vm *VM) opWriteFromStored() error {
	dst, err := vm.callerSink()
	if err != nil {
		return err
	}
	top := vm.sinks[len(vm.sinks)-1]
	if vm.infoOnly {
		return nil
	}
	if _, err := dst.Write(top.remaining()); err != nil {
		return status.Newf(status.Write, "script: sink write failed: %v", err)
	}
	top.pos = len(top.buf)
	return nil
}

func (vm *VM) opWriteSomeFromStored() error {
	n, err := vm.popInt()
	if err != nil {
		return err
	}
	dst, err := vm.callerSink()
	if err != nil {
		return err
	}
	top := vm.sinks[len(vm.sinks)-1]
	if vm.infoOnly {
		top.readSome(n)
		return nil
	}
	chunk := top.readSome(n)
	if _, err := dst.Write(chunk); err != nil {
		return status.Newf(status.Write, "script: sink write failed: %v", err)
	}
	return nil
}

func (vm *VM) opWritePathLink() error {
	path, err := vm.pop()
	if err != nil {
		return err
	}
	link, err := vm.pop()
	if err != nil {
		return err
	}
	if vm.infoOnly {
		return nil
	}
	line := append(append([]byte{}, path...), '\n')
	line = append(line, link...)
	line = append(line, '\n')
	return vm.writeOut(line)
}
