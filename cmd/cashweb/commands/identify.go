package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kentjhall/cashweb-sub000/internal/cli/output"
	"github.com/kentjhall/cashweb-sub000/pkg/identifier"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <identifier>",
	Short: "Classify a cashweb identifier string",
	Long: `identify parses an identifier string and reports its kind (txid,
nametag, or path) along with the fields that kind carries.

It does no network lookup; classification is pure string parsing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := identifier.Classify(args[0])
		if id.Kind == identifier.Invalid {
			Exit("not a recognized identifier: %q", args[0])
		}

		var pairs [][2]string
		switch id.Kind {
		case identifier.Txid:
			pairs = [][2]string{
				{"kind", "txid"},
				{"txid", id.Txid},
			}
		case identifier.Nametag:
			rev := "latest"
			if id.Revision != identifier.LatestRevision {
				rev = fmt.Sprintf("%d", id.Revision)
			}
			pairs = [][2]string{
				{"kind", "nametag"},
				{"name", id.Name},
				{"revision", rev},
			}
		case identifier.Path:
			pairs = [][2]string{
				{"kind", "path"},
				{"inner", id.Inner},
				{"sub_path", id.SubPath},
			}
		}
		return output.SimpleTable(os.Stdout, pairs)
	},
}
