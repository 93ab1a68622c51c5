package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
	"github.com/sdkdesk/sdkdesk/internal/tracker"
)

// progressPrinter writes one line per visible change of a task.
type progressPrinter struct {
	w   io.Writer
	key sdk.Key

	mu   sync.Mutex
	last string
}

func newProgressPrinter(w io.Writer, key sdk.Key) *progressPrinter {
	return &progressPrinter{w: w, key: key}
}

// observe is registered with Registry.Watch.
func (p *progressPrinter) observe(c tracker.Change) {
	if c.Key != p.key || c.Removed() {
		return
	}
	line := formatTask(*c.Task)

	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.w, line)
}

func formatTask(t tracker.Task) string {
	return fmt.Sprintf("  %-11s %3d%%  %s", t.Status, t.Progress.Percentage, t.Progress.Message)
}
