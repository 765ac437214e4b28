package script

import (
	"fmt"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Instruction is one decoded opcode plus its static operand, for
// disassembly output (used by cmd/cashweb's script-inspection subcommand).
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand string // hex-encoded immediate operand, empty if none
}

// Disassemble decodes program into a flat instruction listing without
// executing it. It mirrors VM.Run's decode loop exactly, but every opcode
// whose operand length depends on runtime stack state (PUSHSTRX) cannot be
// followed statically — disassembly stops there and reports how many bytes
// remain unaccounted for.
func Disassemble(program []byte) ([]Instruction, error) {
	var out []Instruction
	i := 0
	for i < len(program) {
		offset := i
		op := Opcode(program[i])
		i++

		switch {
		case op == OpPushNo:
			out = append(out, Instruction{Offset: offset, Op: op})

		case op >= 1 && op <= maxDirectPush:
			n := int(op)
			if i+n > len(program) {
				return out, status.New(status.ScriptStructure, "PUSHSTR length runs past end of program")
			}
			out = append(out, Instruction{Offset: offset, Op: op, Operand: wire.BytesToHex(program[i : i+n])})
			i += n

		case op == OpPushTxid:
			if i+wire.TxidBytes > len(program) {
				return out, status.New(status.ScriptStructure, "PUSHTXID runs past end of program")
			}
			out = append(out, Instruction{Offset: offset, Op: op, Operand: wire.BytesToHex(program[i : i+wire.TxidBytes])})
			i += wire.TxidBytes

		case op == OpPushChar, op == OpPushShort, op == OpPushInt:
			n := pushWidth(op)
			if i+n > len(program) {
				return out, status.Newf(status.ScriptStructure, "push of %d bytes runs past end of program", n)
			}
			out = append(out, Instruction{Offset: offset, Op: op, Operand: wire.BytesToHex(program[i : i+n])})
			i += n

		case op == OpPushStrX:
			out = append(out, Instruction{Offset: offset, Op: op, Operand: fmt.Sprintf("<%d trailing bytes not statically decodable>", len(program)-i)})
			return out, nil

		default:
			out = append(out, Instruction{Offset: offset, Op: op})
			if op == OpTerm {
				return out, nil
			}
		}
	}
	return out, nil
}

func pushWidth(op Opcode) int {
	switch op {
	case OpPushChar:
		return 1
	case OpPushShort:
		return 2
	case OpPushInt:
		return 4
	default:
		return 0
	}
}

// String renders one instruction as "OFFSET OPNAME OPERAND".
func (ins Instruction) String() string {
	if ins.Operand == "" {
		return fmt.Sprintf("%04d %s", ins.Offset, ins.Op)
	}
	return fmt.Sprintf("%04d %s %s", ins.Offset, ins.Op, ins.Operand)
}
