package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rwcarlsen/biteopt/logger"
)

var (
	logLevel  string
	logFormat string
	lg        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "biteopt",
	Short: "Derivative-free global minimization of benchmark functions",
	Long: `biteopt runs the self-adapting ensemble optimizer on the bundled
benchmark functions, optionally tracing evaluations to sqlite and
exporting progress as Prometheus metrics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.ForFormat(logFormat, logLevel, os.Stderr)
		if err != nil {
			return err
		}
		lg = l
		slog.SetDefault(lg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (json, text)")
}
