package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show installed and available SDK counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a := newApp()
	stats, err := a.catalog.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	if statsJSON {
		return printJSON(cmd, stats)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.OutOrStdout(), "JDKs installed:  %d of %d available\n", stats.JDKInstalled, stats.JDKAvailable)
	p.Fprintf(cmd.OutOrStdout(), "SDKs installed:  %d across %d candidates\n", stats.SDKInstalled, stats.SDKAvailable)
	return nil
}
