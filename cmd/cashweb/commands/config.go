package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kentjhall/cashweb-sub000/internal/cli/output"
	"github.com/kentjhall/cashweb-sub000/pkg/config"
)

var configPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the cashweb configuration",
	Long: `config groups subcommands that operate on the cashweb
configuration file: validating it and generating its JSON schema.`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `validate loads the cashweb configuration file, applies defaults,
and checks it for missing required fields and invalid values.

Examples:
  # Validate the default config
  cashweb config validate

  # Validate a specific config file
  cashweb config validate --config /etc/cashweb/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			Exit("%v", err)
		}

		displayPath := configPath
		if displayPath == "" {
			displayPath = "(default search path)"
		}

		pairs := [][2]string{
			{"config_file", displayPath},
			{"validation", "OK"},
			{"protocol_version", strconv.Itoa(int(cfg.Protocol.Version))},
			{"data_dir", cfg.DataDir},
			{"max_tree_depth", strconv.Itoa(int(cfg.Send.MaxTreeDepth))},
			{"max_0conf_chain", strconv.Itoa(cfg.Send.Max0confChain)},
			{"log_level", cfg.Logging.Level},
		}
		return output.SimpleTable(os.Stdout, pairs)
	},
}

func init() {
	configCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file (default: the standard search path)")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
}
