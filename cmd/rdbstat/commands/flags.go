// Package commands implements CLI command handlers for rdbstat.
package commands

import (
	"github.com/spf13/cobra"
)

// Global flag names.
const (
	flagLogLevel = "log-level"
	flagLogJSON  = "log-json"
	flagVerbose  = "verbose"
	flagConfig   = "config"
)

// RegisterGlobalFlags adds the flags shared by every subcommand.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String(flagLogLevel, "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().Bool(flagLogJSON, false, "Emit logs as JSON")
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "Print the per-metric summary table")
	root.PersistentFlags().String(flagConfig, "", "Config file (default: rdbstat.yaml in ., ./config, /etc/rdbstat)")
}

// stringFlag returns a flag value, or "" when the flag is not registered on cmd.
func stringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return v
}

// boolFlag returns a flag value, or false when the flag is not registered on cmd.
func boolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return v
}
