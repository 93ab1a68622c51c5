package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/config"
	"github.com/sdkdesk/sdkdesk/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagConfig    string
	flagLogLevel  string
	flagSDKManDir string
)

// session is the configuration and logger loaded before every command.
var session struct {
	store *config.Store
	cfg   *config.Config
	log   *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs, removes and switches SDK versions (java, maven, gradle, ...)
in an SDKMAN-compatible directory tree, using the SDKMAN catalog.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSession,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if session.log != nil {
			_ = session.log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.FilePath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagSDKManDir, "sdkman-dir", "", "SDK tree root (default $SDKMAN_DIR or ~/.sdkman)")
}

func loadSession(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = config.FilePath()
	}
	store := config.NewStore(path)
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagSDKManDir != "" {
		cfg.SDKManDir = flagSDKManDir
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	session.store = store
	session.cfg = cfg
	session.log = log.Named(branding.CLIName())
	return nil
}

// Execute runs the root command with build info injected via ldflags.
// An interrupt cancels the running command.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
