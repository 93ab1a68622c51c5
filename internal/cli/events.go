package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sdkdesk/sdkdesk/internal/events"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
	"github.com/sdkdesk/sdkdesk/internal/tracker"
)

var replayVerbose bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with installer event streams",
}

var eventsReplayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a JSON-lines event file through a fresh tracker",
	Long: `Read events of the form {"topic": "...", "payload": {...}}, one per line,
publish them on an event bus and print the resulting task table. A task is
started the first time an event names its candidate and version.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsReplay,
}

func init() {
	eventsReplayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Print every task change")
	eventsCmd.AddCommand(eventsReplayCmd)
	rootCmd.AddCommand(eventsCmd)
}

func runEventsReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening event file: %w", err)
	}
	defer f.Close()

	log := session.log
	bus := events.NewBus()
	reg := tracker.NewRegistry(tracker.WithLogger(log.Named("tracker")))
	listener := tracker.NewListener(bus, reg, log.Named("listener"))
	if err := listener.Initialize(); err != nil {
		return err
	}
	defer listener.Teardown()
	defer reg.ClearAllTasks()

	out := cmd.OutOrStdout()
	if replayVerbose {
		unwatch := reg.Watch(func(c tracker.Change) {
			if c.Removed() {
				fmt.Fprintf(out, "%s removed\n", c.Key)
				return
			}
			fmt.Fprintf(out, "%s %s\n", c.Key, formatTask(*c.Task))
		})
		defer unwatch()
	}

	started := make(map[sdk.Key]bool)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		topic, payload, err := events.DecodeLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		key := payloadKey(payload)
		if !started[key] {
			started[key] = true
			reg.StartTask(key.Candidate, key.Version)
		}
		if err := bus.Publish(cmd.Context(), topic, payload); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event file: %w", err)
	}
	log.Debug("replay finished", zap.Int("lines", lineNo), zap.Int("tasks", reg.Len()))

	tasks := reg.List()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No events replayed.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tSTATUS\tPROGRESS\tMESSAGE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\n", t.Key, t.Status, t.Progress.Percentage, t.Progress.Message)
	}
	return w.Flush()
}

func payloadKey(payload any) sdk.Key {
	switch p := payload.(type) {
	case events.DownloadProgress:
		return sdk.NewKey(p.Candidate, p.Version)
	case events.InstallProgress:
		return sdk.NewKey(p.Candidate, p.Version)
	case events.InstallComplete:
		return sdk.NewKey(p.Candidate, p.Version)
	}
	return sdk.Key{}
}
