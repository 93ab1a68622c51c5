package tracker

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sdkdesk/sdkdesk/internal/events"
)

// Listener routes installer events into a Registry. At most one
// subscription per topic is active at any time.
type Listener struct {
	bus      events.Subscriber
	registry *Registry
	log      *zap.Logger

	mu     sync.Mutex
	unsubs []events.Unsubscribe
}

// NewListener creates a Listener for registry fed by bus. It does not
// subscribe until Initialize is called.
func NewListener(bus events.Subscriber, registry *Registry, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{bus: bus, registry: registry, log: log}
}

// Initialize subscribes to the download-progress, install-progress and
// install-complete topics. Existing subscriptions are released first, so
// calling it again never duplicates handlers.
func (l *Listener) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.teardownLocked()

	routes := []struct {
		topic   events.Topic
		handler events.Handler
	}{
		{events.TopicDownloadProgress, l.onDownload},
		{events.TopicInstallProgress, l.onInstall},
		{events.TopicInstallComplete, l.onComplete},
	}

	for _, r := range routes {
		unsub, err := l.bus.Subscribe(r.topic, r.handler)
		if err != nil {
			l.teardownLocked()
			return fmt.Errorf("subscribing to %s: %w", r.topic, err)
		}
		l.unsubs = append(l.unsubs, unsub)
	}

	l.log.Debug("event listeners initialized", zap.Int("topics", len(l.unsubs)))
	return nil
}

// Teardown releases every subscription. It is safe to call when nothing
// is subscribed.
func (l *Listener) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.teardownLocked()
}

// Active returns the number of live subscriptions.
func (l *Listener) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.unsubs)
}

func (l *Listener) teardownLocked() {
	if len(l.unsubs) == 0 {
		return
	}
	for _, unsub := range l.unsubs {
		unsub()
	}
	l.unsubs = nil
	l.log.Debug("event listeners released")
}

func (l *Listener) onDownload(env events.Envelope) {
	p, ok := env.Payload.(events.DownloadProgress)
	if !ok {
		l.unexpected(env)
		return
	}
	l.registry.ApplyDownloadEvent(p.Candidate, p.Version, p.Percentage, p.Downloaded, p.Total)
}

func (l *Listener) onInstall(env events.Envelope) {
	p, ok := env.Payload.(events.InstallProgress)
	if !ok {
		l.unexpected(env)
		return
	}
	l.registry.ApplyInstallEvent(p.Candidate, p.Version, p.Message)
}

func (l *Listener) onComplete(env events.Envelope) {
	p, ok := env.Payload.(events.InstallComplete)
	if !ok {
		l.unexpected(env)
		return
	}
	l.registry.ApplyCompletionEvent(p.Candidate, p.Version, p.Success, p.Message)
}

func (l *Listener) unexpected(env events.Envelope) {
	l.log.Warn("dropping event with unexpected payload",
		zap.String("topic", string(env.Topic)),
		zap.String("event_id", env.ID.String()),
		zap.String("payload_type", fmt.Sprintf("%T", env.Payload)),
	)
}
