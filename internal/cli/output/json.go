package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data as formatted JSON to the writer. Subcommands use
// this for machine-readable output (piped lookups, scripted inspection)
// and PrintTable for the human-facing default.
func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
