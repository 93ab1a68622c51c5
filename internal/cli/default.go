package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var defaultUnset bool

var defaultCmd = &cobra.Command{
	Use:   "default <candidate> [version]",
	Short: "Set or clear the default version of a candidate",
	Long: `Point the candidate's "current" link at an installed version.
With --unset the link is removed instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDefault,
}

func init() {
	defaultCmd.Flags().BoolVar(&defaultUnset, "unset", false, "Remove the default instead of setting it")
	rootCmd.AddCommand(defaultCmd)
}

func runDefault(cmd *cobra.Command, args []string) error {
	a := newApp()
	candidate := args[0]

	if defaultUnset {
		if err := a.installer.UnsetDefault(cmd.Context(), candidate); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared the default %s\n", candidate)
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("a version is required unless --unset is given")
	}

	version := args[1]
	if err := a.manager.SetDefault(cmd.Context(), candidate, version); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default %s version set to %s\n", candidate, version)
	return nil
}
