package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/mapforge/internal/config"
	"github.com/papapumpkin/mapforge/internal/ledger"
	"github.com/papapumpkin/mapforge/internal/ui"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger [home]",
	Short: "List recorded map migration runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLedger,
}

func init() {
	ledgerCmd.Flags().Int("limit", 0, "number of runs to show (default from config)")
	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	home := argAt(args, 0)
	if home == "" {
		home = cfg.Project
	}
	limit := cfg.LedgerLimit
	if v, _ := cmd.Flags().GetInt("limit"); v > 0 {
		limit = v
	}

	l, err := ledger.Open(ctx, cfg.LedgerFile(home))
	if err != nil {
		return err
	}
	defer l.Close()

	runs, err := l.List(ctx, limit)
	if err != nil {
		return err
	}
	ui.New().Runs(runs)
	return nil
}
