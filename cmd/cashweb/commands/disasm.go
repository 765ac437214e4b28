package commands

import (
	"fmt"

	"github.com/kentjhall/cashweb-sub000/pkg/script"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
	"github.com/spf13/cobra"
)

var disasmHex bool

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Disassemble a redemption script",
	Long: `disasm reads a script program from file ("-" for stdin) and prints
its decoded instruction listing, one opcode per line.

By default the input is read as raw binary. With --hex the input is parsed
as a hex-encoded string instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			Exit("%v", err)
		}
		if disasmHex {
			decoded, err := wire.HexToBytes(string(trimNewline(raw)))
			if err != nil {
				Exit("invalid hex input: %v", err)
			}
			raw = decoded
		}

		ins, err := script.Disassemble(raw)
		for _, in := range ins {
			fmt.Println(in.String())
		}
		if err != nil {
			Exit("disassembly stopped early: %v", err)
		}
		return nil
	},
}

func init() {
	disasmCmd.Flags().BoolVar(&disasmHex, "hex", false, "treat input as hex-encoded rather than raw binary")
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
