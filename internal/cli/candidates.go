package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	candidatesRefresh bool
	candidatesJSON    bool
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the SDK candidates offered by the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCandidates,
}

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesRefresh, "refresh", false, "Ignore the cache and fetch the listing")
	candidatesCmd.Flags().BoolVar(&candidatesJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, args []string) error {
	a := newApp()
	candidates, err := a.catalog.ListCandidates(cmd.Context(), candidatesRefresh)
	if err != nil {
		return fmt.Errorf("listing candidates: %w", err)
	}

	if candidatesJSON {
		return printJSON(cmd, candidates)
	}
	if len(candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No candidates found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tNAME\tCATEGORY\tLATEST")
	for _, c := range candidates {
		latest := c.LatestVersion
		if latest == "" {
			latest = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Category, latest)
	}
	return w.Flush()
}
