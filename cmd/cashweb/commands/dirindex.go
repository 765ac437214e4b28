package commands

import (
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kentjhall/cashweb-sub000/internal/cli/output"
	"github.com/kentjhall/cashweb-sub000/pkg/dirindex"
)

var (
	dirindexLookupPath string
	dirindexJSON       bool
)

var dirindexCmd = &cobra.Command{
	Use:   "dirindex <file>",
	Short: "Render or query a directory-index entity",
	Long: `dirindex reads a raw directory-index stream from file ("-" for
stdin) and either prints its full path -> identifier mapping, or, when
--lookup is given, resolves a single path within it.

The full dump renders as a table by default; --json switches it to the
machine-readable mapping. Lookup results are always JSON, since they
exist to be piped into the next resolution step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			Exit("%v", err)
		}

		if dirindexLookupPath != "" {
			subPath, id, hasSubPath, err := dirindex.Lookup(raw, dirindexLookupPath)
			if err != nil {
				Exit("lookup failed: %v", err)
			}
			out := map[string]any{"identifier": id}
			if hasSubPath {
				out["sub_path"] = subPath
			}
			return output.PrintJSON(os.Stdout, out)
		}

		m, err := dirindex.RawToJSON(raw)
		if err != nil {
			Exit("parse failed: %v", err)
		}
		if dirindexJSON {
			return output.PrintJSON(os.Stdout, m)
		}

		paths := make([]string, 0, len(m))
		for p := range m {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		table := output.NewTableData("Path", "Identifier")
		for _, p := range paths {
			table.AddRow(p, m[p])
		}
		return output.PrintTable(os.Stdout, table)
	},
}

func init() {
	dirindexCmd.Flags().StringVar(&dirindexLookupPath, "lookup", "", "resolve a single path instead of dumping the whole index")
	dirindexCmd.Flags().BoolVar(&dirindexJSON, "json", false, "print the full dump as JSON instead of a table")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
