package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/mapforge/internal/ui"
	"github.com/papapumpkin/mapforge/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check <actual> <expected>",
	Short: "Check whether a version satisfies an expected version",
	Long: `Compares two MAJOR.MINOR versions. The majors must match and the actual
minor may not exceed the expected one. Exits non-zero when they are
incompatible.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	c, err := version.Check(args[0], args[1])
	if err != nil {
		return err
	}
	ui.New().Compatibility(args[0], args[1], c)
	if c != version.Compatible {
		return fmt.Errorf("check: %s is %s with %s", args[0], c, args[1])
	}
	return nil
}
