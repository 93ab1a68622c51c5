package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/config"
	"github.com/sdkdesk/sdkdesk/internal/local"
)

var (
	doctorFix     bool
	doctorOffline bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair dangling links, permissions and temp files")
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "Skip the catalog reachability check")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the SDK tree and settings",
	Long: `Run diagnostic checks on the config file, the SDK tree and the catalog
connection. Use --fix to repair what can be repaired safely.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		problems := 0

		fmt.Fprintln(out, "Config check:")
		problems += checkConfigFile(out)

		fmt.Fprintln(out, "SDK tree check:")
		report, err := local.NewScanner(session.cfg.SDKManDir).Check(doctorFix)
		if err != nil {
			return err
		}
		for _, f := range report.Findings {
			fmt.Fprintf(out, "  %s\n", f)
		}
		problems += report.Problems()

		if !doctorOffline {
			fmt.Fprintln(out, "Catalog check:")
			problems += checkCatalog(cmd.Context(), out)
		}

		fmt.Fprintln(out)
		if problems > 0 {
			return fmt.Errorf("%d problem(s) found; run '%s doctor --fix' to repair what can be fixed", problems, branding.CLIName())
		}
		fmt.Fprintln(out, "✓ No problems found.")
		return nil
	},
}

func checkConfigFile(w io.Writer) int {
	path := session.store.Path()
	res, err := config.ValidateFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(w, "  [ OK ] %s: not present, defaults apply\n", path)
		return 0
	case err != nil:
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return 1
	case !res.Valid:
		for _, issue := range res.Issues {
			fmt.Fprintf(w, "  [WARN] %s: %s\n", path, issue)
		}
		return len(res.Issues)
	}
	fmt.Fprintf(w, "  [ OK ] %s: valid\n", path)
	return 0
}

func checkCatalog(ctx context.Context, w io.Writer) int {
	client := newApp().client
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	u := client.CandidatesURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", u, err)
		return 1
	}
	req.Header.Set("User-Agent", client.UserAgent())

	start := time.Now()
	resp, err := client.HTTP().Do(req)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", u, err)
		return 1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(w, "  [FAIL] %s: HTTP %d\n", u, resp.StatusCode)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s (%s)\n", u, time.Since(start).Round(time.Millisecond))
	return 0
}
