package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kentjhall/cashweb-sub000/internal/cli/output"
	"github.com/kentjhall/cashweb-sub000/pkg/recovery"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery <file>",
	Short: "Inspect a recovery-stream checkpoint",
	Long: `recovery reads a checkpoint file previously written by a send
pipeline's resume logic ("-" for stdin) and prints its header fields, the
byte length of its pending body, and (when non-empty) that body as hex.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			Exit("%v", err)
		}

		s, err := recovery.Read(bytes.NewReader(raw))
		if err != nil {
			Exit("malformed recovery stream: %v", err)
		}

		pairs := [][2]string{
			{"type", fmt.Sprintf("%d", s.Type)},
			{"max_tree_depth", fmt.Sprintf("%d", s.MaxTreeDepth)},
			{"saved_tree_depth", fmt.Sprintf("%d", s.SavedTreeDepth)},
			{"body_bytes", fmt.Sprintf("%d", len(s.Body))},
		}
		if len(s.Body) > 0 {
			pairs = append(pairs, [2]string{"body_hex", wire.BytesToHex(s.Body)})
		}
		return output.SimpleTable(os.Stdout, pairs)
	},
}
