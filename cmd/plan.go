package cmd

import (
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <home> <map>",
	Short: "Show the migrations opening a map would run",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	e, err := openProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.session.PlanMap(args[1])
	if err != nil {
		e.printer.MapResult(res, err)
		return err
	}
	e.printer.Plan(res)
	return nil
}
