package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var currentCmd = &cobra.Command{
	Use:   "current [candidate]",
	Short: "Show the default version of one or all candidates",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCurrent,
}

func init() {
	rootCmd.AddCommand(currentCmd)
}

func runCurrent(cmd *cobra.Command, args []string) error {
	a := newApp()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		current, err := a.catalog.CurrentVersion(args[0])
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Fprintf(out, "No default %s version set.\n", args[0])
			return nil
		}
		fmt.Fprintln(out, current)
		return nil
	}

	candidates, err := a.catalog.ListInstalledCandidates()
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No SDKs installed yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tDEFAULT")
	for _, c := range candidates {
		current, err := a.catalog.CurrentVersion(c)
		if err != nil {
			return err
		}
		if current == "" {
			current = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", c, current)
	}
	return w.Flush()
}
