package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/mapforge/internal/session"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <home> [map...]",
	Short: "Migrate maps to the project version and save them",
	Long: `Opens each listed map, runs its pending migrations and saves it at the
project version. --all migrates every map under <home>/maps. A failing map does
not stop the others. --dry-run only prints what would run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("all", false, "migrate every map of the project")
	migrateCmd.Flags().Bool("dry-run", false, "print the migrations that would run without running them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	keys := args[1:]
	if all == (len(keys) > 0) {
		return errors.New("migrate: give either map keys or --all")
	}

	ctx, cancel := signalContext()
	defer cancel()

	e, err := openProject(ctx, args[0])
	if err != nil {
		return err
	}
	defer e.close()

	if all {
		if keys, err = e.session.Maps(); err != nil {
			return err
		}
		if len(keys) == 0 {
			e.printer.Info(fmt.Sprintf("no maps under %s", session.MapsDir(e.home)))
			return nil
		}
	}

	if dryRun {
		var errs []error
		for _, key := range keys {
			res, err := e.session.PlanMap(key)
			if err != nil {
				e.printer.MapResult(res, err)
				errs = append(errs, err)
				continue
			}
			e.printer.Plan(res)
		}
		return errors.Join(errs...)
	}

	failed := 0
	err = e.session.MigrateMaps(ctx, keys, func(res session.Result, err error) {
		if err != nil {
			failed++
		}
		e.printer.MapResult(res, err)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("migrate: %d of %d maps failed", failed, len(keys))
	}
	return nil
}
