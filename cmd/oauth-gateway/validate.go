package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panicbit/oauth-gateway/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting the gateway.

Validation checks the YAML for unknown fields, resolves ENV[NAME]
indirection, compiles every public-route pattern, and enforces the
uniqueness of each (listen, name) virtual host pair.

Examples:
  # Validate the default config
  oauth-gateway validate

  # Validate a specific file
  oauth-gateway validate --config /etc/oauth-gateway/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Configuration valid: %d virtual host(s)\n", len(cfg.Servers))
	return nil
}
