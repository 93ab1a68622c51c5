package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/catalog"
)

var (
	versionShort bool
	versionJSON  bool
)

// versionInfo is the build and environment summary printed by version.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	SDKManDir string `json:"sdkman_dir"`
	API       string `json:"api"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build and environment details as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the build, platform and SDK tree in use",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if versionShort {
		fmt.Fprintln(out, buildVersion)
		return nil
	}

	info := versionInfo{
		Version:   buildVersion,
		Commit:    buildCommit,
		Date:      buildDate,
		GoVersion: runtime.Version(),
		Platform:  catalog.Platform(),
		SDKManDir: session.cfg.SDKManDir,
		API:       session.cfg.APIBaseURL,
	}
	if versionJSON {
		return printJSON(cmd, info)
	}

	fmt.Fprintf(out, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), info.Version, info.Commit, info.Date)
	fmt.Fprintf(out, "  platform:   %s (%s)\n", info.Platform, info.GoVersion)
	fmt.Fprintf(out, "  sdkman dir: %s\n", info.SDKManDir)
	fmt.Fprintf(out, "  api:        %s\n", info.API)
	return nil
}
