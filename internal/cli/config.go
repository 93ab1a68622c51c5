package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sdkdesk/sdkdesk/internal/config"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long:  `Read and write settings stored at ` + config.FilePath() + `.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := session.store.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)

		res, err := config.ValidateFile(session.store.Path())
		if err != nil {
			return err
		}
		printIssues(cmd, res)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(config.Keys, args[0]) {
			return fmt.Errorf("%w %q", config.ErrUnknownKey, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), session.store.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		for _, key := range config.Keys {
			fmt.Fprintf(w, "%s\t%s\n", key, session.store.Get(key))
		}
		return w.Flush()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file against the settings schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := session.store.Path()
		if len(args) == 1 {
			path = args[0]
		}

		res, err := config.ValidateFile(path)
		if errors.Is(err, os.ErrNotExist) && len(args) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No config file at %s; defaults apply.\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		if res.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
			return nil
		}
		printIssues(cmd, res)
		return fmt.Errorf("%s has %d problem(s)", path, len(res.Issues))
	},
}

func printIssues(cmd *cobra.Command, res *config.ValidationResult) {
	for _, issue := range res.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %s\n", issue)
	}
}
