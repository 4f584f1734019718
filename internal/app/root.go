// Package app contains the Cobra command tree for cropflow.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "cropflow",
	Short: "Interstate crop surplus and deficit matching",
	Long: `cropflow compares each region's crop production against the national
average, forecasts production for years without data, and pairs surplus
regions with deficit regions to minimise transport distance.

Import observations and a distance table first, then ask for
recommendations:

  cropflow import apy.csv
  cropflow distances import distances.csv
  cropflow transactions --year 2015-16`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "cropflow", appVersion)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Use a subcommand:")
		fmt.Fprintln(w, "  import        Load crop observations from CSV, JSON or XLSX")
		fmt.Fprintln(w, "  distances     Manage the interstate distance table")
		fmt.Fprintln(w, "  strategies    Rank crops for one region and crop year")
		fmt.Fprintln(w, "  transactions  Match surplus and deficit regions country-wide")
		fmt.Fprintln(w, "  trade         Sell and buy opportunities for one region")
		fmt.Fprintln(w, "  forecast      Inspect production forecasts")
		fmt.Fprintln(w, "  history       List stored recommendations and data coverage")
		fmt.Fprintln(w, "  serve         Run the HTTP API")
		fmt.Fprintln(w, "  mcp           Run an MCP stdio server")
		return nil
	},
}

// setup configures logging and color before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	if flagNoColor {
		output.SetNoColor(true)
	} else {
		output.AutoColor(os.Stdout)
	}
	return nil
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/cropflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}
