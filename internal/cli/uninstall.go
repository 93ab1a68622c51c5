package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <candidate> <version> | <candidate>:<version>",
	Short: "Remove an installed SDK version",
	Long:  `Remove an SDK version from the SDK tree. If it was the default, the default is cleared.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	key, err := keyFromArgs(args)
	if err != nil {
		return err
	}

	m := newApp().manager
	if err := m.Uninstall(cmd.Context(), key.Candidate, key.Version); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s\n", key.Candidate, key.Version)
	return nil
}
