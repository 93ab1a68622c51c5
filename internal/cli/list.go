package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sdkdesk/sdkdesk/internal/catalog"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

var (
	listRefresh   bool
	listInstalled bool
	listJSON      bool
)

var listCmd = &cobra.Command{
	Use:   "list <candidate>",
	Short: "List versions of a candidate",
	Long: `List the versions of a candidate offered by the catalog, plus any versions
installed locally that the catalog no longer offers. Listings are cached;
use --refresh to fetch them again.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "Ignore the cache and fetch the listing")
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "Only show installed versions")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	candidate := args[0]
	a := newApp()

	versions, err := a.catalog.ListVersions(cmd.Context(), candidate, listRefresh)
	if err != nil {
		return fmt.Errorf("listing %s versions: %w", candidate, err)
	}

	if listInstalled {
		filtered := versions[:0]
		for _, v := range versions {
			if v.Installed {
				filtered = append(filtered, v)
			}
		}
		versions = filtered
	}

	if listJSON {
		return printJSON(cmd, versions)
	}
	if len(versions) == 0 {
		if listInstalled {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s versions installed.\n", candidate)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s versions found.\n", candidate)
		}
		return nil
	}
	return printVersionTable(cmd, candidate, versions)
}

func printVersionTable(cmd *cobra.Command, candidate string, versions []sdk.Version) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	java := candidate == catalog.JavaCandidate

	if java {
		fmt.Fprintln(w, " \tVENDOR\tVERSION\tIDENTIFIER\tTYPE")
	} else {
		fmt.Fprintln(w, " \tVERSION")
	}
	for _, v := range versions {
		if java {
			vendor := v.Vendor
			if vendor == "" {
				vendor = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", versionMarker(v), vendor, v.Version, v.Identifier, joinCategories(v.Categories))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", versionMarker(v), v.Version)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\n> in use   * installed")
	return nil
}

func versionMarker(v sdk.Version) string {
	switch {
	case v.InUse:
		return ">"
	case v.Installed:
		return "*"
	}
	return " "
}

func joinCategories(cats []sdk.JDKCategory) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
