package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "oauth-gateway",
	Short: "oauth-gateway - authenticating reverse proxy",
	Long: `oauth-gateway is a multi-tenant authenticating reverse HTTP proxy.

It fronts one or more upstream application servers, providing:
  - Per-virtual-host TLS termination with SNI certificate selection
  - OIDC bearer-token authentication via RFC 7662 introspection
  - Per-host public-route exemptions
  - Trusted identity headers (X-User-Id, X-User-Name, X-User-Role)
  - Optional access auditing and Prometheus metrics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
