package main

import (
	"github.com/spf13/cobra"
)

type statsFlags struct {
	config       string
	dsn          string
	user         string
	password     string
	stats        string
	verbose      bool
	json         bool
	human        bool
	promTextfile string
}

func newRootCommand() *cobra.Command {
	flags := &statsFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "mogstats",
		Short:         "Report MogileFS metadata statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, ctx)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	persistent.BoolVar(&flags.verbose, "verbose", false, "Log queries and timings to stderr")

	local := rootCmd.Flags()
	local.StringVar(&flags.dsn, "db-dsn", "", "Metadata database DSN (overrides config and MOG_DB_DSN)")
	local.StringVar(&flags.user, "db-user", "", "Database user")
	local.StringVar(&flags.password, "db-pass", "", "Database password")
	local.StringVar(&flags.stats, "stats", "all", "Comma separated reports: "+reportNames())
	local.BoolVar(&flags.json, "json", false, "Emit reports as JSON")
	local.BoolVar(&flags.human, "human", false, "Format byte sizes and counts for reading")
	local.StringVar(&flags.promTextfile, "prom-textfile", "", "Also write Prometheus gauges to this file")

	rootCmd.AddCommand(newConfigCommand(flags))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
