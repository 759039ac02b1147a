package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/mapforge/internal/migration"
)

var addMigrationCmd = &cobra.Command{
	Use:   "add-migration <home> <name>",
	Short: "Add an existing-code migration to the project manifest",
	Long: `Appends the named existing-code migration to the manifest at a new major
project version. With --map, the migration is also applied to that map, which
is then saved.`,
	Args: cobra.ExactArgs(2),
	RunE: runAddMigration,
}

func init() {
	addMigrationCmd.Flags().String("options", "", "migration options as a JSON object")
	addMigrationCmd.Flags().String("map", "", "map to open, migrate and save")
	rootCmd.AddCommand(addMigrationCmd)
}

// parseOptions decodes the --options flag. An empty string means no options.
func parseOptions(raw string) (migration.Options, error) {
	if raw == "" {
		return nil, nil
	}
	var opts migration.Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("add-migration: parse --options: %w", err)
	}
	return opts, nil
}

func runAddMigration(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	raw, _ := cmd.Flags().GetString("options")
	opts, err := parseOptions(raw)
	if err != nil {
		return err
	}

	e, err := openProject(ctx, args[0])
	if err != nil {
		return err
	}
	defer e.close()

	mapKey, _ := cmd.Flags().GetString("map")
	if mapKey != "" {
		res, err := e.session.OpenMap(ctx, mapKey)
		e.printer.MapResult(res, err)
		if err != nil {
			return err
		}
	}

	if err := e.session.RunExistingCodeMigration(ctx, args[1], opts); err != nil {
		return err
	}
	vf, err := e.session.VersionFile()
	if err != nil {
		return err
	}
	e.printer.Info(fmt.Sprintf("added %s at project version %s", args[1], vf.ProjectVersion))

	if mapKey == "" {
		return nil
	}
	return e.session.SaveMap(ctx)
}
