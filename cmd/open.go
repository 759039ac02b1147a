package cmd

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [home] [map]",
	Short: "Open a project, creating or extending its version manifest",
	Long: `Opens the project at home. A missing manifest is created; editor migrations
the manifest does not list yet are appended to it.

With a map key, the map is also opened and migrated in memory. Pass --save to
write the migrated map back.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().Bool("save", false, "save the opened map after migrating it")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openProject(ctx, argAt(args, 0))
	if err != nil {
		return err
	}
	defer e.close()

	vf, err := e.session.VersionFile()
	if err != nil {
		return err
	}
	e.printer.ProjectOpened(e.home, vf)

	if len(args) < 2 {
		return nil
	}
	res, err := e.session.OpenMap(ctx, args[1])
	e.printer.MapResult(res, err)
	if err != nil {
		return err
	}
	if save, _ := cmd.Flags().GetBool("save"); save {
		return e.session.SaveMap(ctx)
	}
	return nil
}
