package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mogtools/internal/logging"
	"mogtools/internal/metrics"
	"mogtools/internal/stats"
)

func runStats(cmd *cobra.Command, ctx *commandContext) error {
	kinds, err := stats.ParseKinds(ctx.flags.stats)
	if err != nil {
		return fmt.Errorf("--stats: %w", err)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	db, err := ctx.openDB(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer ctx.close()

	collector := stats.NewCollector(db, logger, cfg.Stats.DefaultMinDevCount)
	report, err := collector.Collect(cmd.Context(), kinds)
	if err != nil {
		return err
	}

	if path := strings.TrimSpace(ctx.flags.promTextfile); path != "" {
		if err := metrics.WriteTextfile(path, report); err != nil {
			return err
		}
		logger.Info("metrics textfile written", logging.String("path", path))
	}

	if ctx.flags.json {
		return writeJSON(cmd, newJSONReport(report))
	}
	writeReport(cmd.OutOrStdout(), report, newValueFormatter(ctx.flags.human))
	return nil
}

func reportNames() string {
	return strings.Join(stats.Names(), ", ")
}
