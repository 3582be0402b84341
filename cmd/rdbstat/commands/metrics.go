package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rdbstat/pkg/config"
	"github.com/Sumatoshi-tech/rdbstat/pkg/terminal"
)

// NewMetricsCommand creates the metrics listing command.
func NewMetricsCommand() *cobra.Command {
	return newMetricsCommandWithDeps(config.LoadConfig)
}

func newMetricsCommandWithDeps(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the extractable metrics",
		Long:  "List the built-in metrics and any custom metrics from the config, in extraction order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(stringFlag(cmd, flagConfig))
			if err != nil {
				return err
			}

			reg, err := cfg.Registry()
			if err != nil {
				return err
			}

			terminal.NewPrinter(cmd.OutOrStdout(), true).Registry(reg)

			return nil
		},
	}
}
