// Package commands implements the cashweb CLI's subcommands.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cashweb",
	Short: "Inspect cashweb identifiers, directory indexes, scripts, and recovery streams",
	Long: `cashweb is a command-line tool for working with local cashweb artifacts.

It classifies identifier strings, renders directory-index entities as a
table (or as JSON with --json),
disassembles redemption scripts, and inspects recovery-stream checkpoints.
It has no send or get subcommand: talking to a blockchain node or a fetch
transport is out of scope for this tool.

Use "cashweb [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(dirindexCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(recoveryCmd)
	rootCmd.AddCommand(configCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
