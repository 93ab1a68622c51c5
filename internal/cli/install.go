package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

var installQuiet bool

var installCmd = &cobra.Command{
	Use:   "install <candidate> <version> | <candidate>:<version>",
	Short: "Download and install an SDK version",
	Long: `Download an SDK version from the catalog and unpack it into the SDK tree.
The first installed version of a candidate becomes its default.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installQuiet, "quiet", "q", false, "Do not print progress")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	key, err := keyFromArgs(args)
	if err != nil {
		return err
	}

	a := newApp()
	m := a.manager
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Shutdown()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installing %s %s...\n", key.Candidate, key.Version)
	if !installQuiet {
		unwatch := m.Tasks().Watch(newProgressPrinter(out, key).observe)
		defer unwatch()
	}

	if err := m.Install(cmd.Context(), key.Candidate, key.Version); err != nil {
		return err
	}

	m.Tasks().RemoveTask(key)

	fmt.Fprintf(out, "✓ Installed %s %s\n", key.Candidate, key.Version)
	if cs, ok := m.State().Candidates[key.Candidate]; ok && cs.Current == key.Version {
		fmt.Fprintf(out, "  %s %s is the default.\n", key.Candidate, key.Version)
	}
	return nil
}

// keyFromArgs accepts either "<candidate> <version>" or "<candidate>:<version>".
func keyFromArgs(args []string) (sdk.Key, error) {
	if len(args) == 2 {
		key := sdk.NewKey(args[0], args[1])
		if err := key.Validate(); err != nil {
			return sdk.Key{}, err
		}
		return key, nil
	}
	return sdk.ParseKey(args[0])
}
