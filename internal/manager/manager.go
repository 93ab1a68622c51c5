package manager

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sdkdesk/sdkdesk/internal/events"
	"github.com/sdkdesk/sdkdesk/internal/guard"
	"github.com/sdkdesk/sdkdesk/internal/refresh"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
	"github.com/sdkdesk/sdkdesk/internal/tracker"
)

// Backend performs installs and publishes their progress events.
// *installer.Installer implements it.
type Backend interface {
	Install(ctx context.Context, candidate, version string) (string, error)
	Uninstall(ctx context.Context, candidate, version string) error
	SetDefault(ctx context.Context, candidate, version string) error
}

// Catalog answers the read queries re-run after an operation.
// *catalog.Service implements it.
type Catalog interface {
	ListVersions(ctx context.Context, candidate string, force bool) ([]sdk.Version, error)
	ScanInstalled(candidate string) ([]string, error)
	CurrentVersion(candidate string) (string, error)
	Statistics(ctx context.Context) (sdk.Statistics, error)
}

// Refresh query names.
const (
	QueryVersions   = "versions"
	QueryInstalled  = "installed"
	QueryCurrent    = "current"
	QueryStatistics = "statistics"
)

// CandidateState is the last refreshed view of one candidate.
type CandidateState struct {
	Versions  []sdk.Version `json:"versions"`
	Installed []string      `json:"installed"`
	Current   string        `json:"current,omitempty"`
}

// Snapshot is a copy of everything the Manager has refreshed so far.
type Snapshot struct {
	Candidates  map[string]CandidateState `json:"candidates"`
	Statistics  sdk.Statistics            `json:"statistics"`
	RefreshedAt time.Time                 `json:"refreshed_at"`
}

// Manager runs install, uninstall and default changes for one SDK tree.
type Manager struct {
	backend   Backend
	catalog   Catalog
	tasks     *tracker.Registry
	listener  *tracker.Listener
	guard     guard.Set
	refresher *refresh.Coordinator
	log       *zap.Logger

	trackerOpts []tracker.Option
	refreshOpts []refresh.Option

	mu    sync.RWMutex
	state Snapshot
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger shared by the Manager and its parts.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithTrackerOptions passes options to the task registry.
func WithTrackerOptions(opts ...tracker.Option) Option {
	return func(m *Manager) {
		m.trackerOpts = append(m.trackerOpts, opts...)
	}
}

// WithRefreshOptions passes options to the refresh coordinator.
func WithRefreshOptions(opts ...refresh.Option) Option {
	return func(m *Manager) {
		m.refreshOpts = append(m.refreshOpts, opts...)
	}
}

// New creates a Manager. Events from bus are not applied until Start.
func New(backend Backend, catalog Catalog, bus events.Subscriber, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		catalog: catalog,
		log:     zap.NewNop(),
		state:   Snapshot{Candidates: make(map[string]CandidateState)},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.tasks = tracker.NewRegistry(append([]tracker.Option{tracker.WithLogger(m.log.Named("tracker"))}, m.trackerOpts...)...)
	m.listener = tracker.NewListener(bus, m.tasks, m.log.Named("listener"))
	m.refresher = refresh.New(append([]refresh.Option{refresh.WithLogger(m.log.Named("refresh"))}, m.refreshOpts...)...)
	return m
}

// Start subscribes to installer events. Calling it again resubscribes.
func (m *Manager) Start() error {
	if err := m.listener.Initialize(); err != nil {
		return fmt.Errorf("starting event listener: %w", err)
	}
	return nil
}

// Shutdown releases the event subscriptions and drops every task.
func (m *Manager) Shutdown() {
	m.listener.Teardown()
	m.tasks.ClearAllTasks()
}

// Tasks returns the task registry.
func (m *Manager) Tasks() *tracker.Registry { return m.tasks }

// Busy reports whether an install or uninstall holds key.
func (m *Manager) Busy(key sdk.Key) bool { return m.guard.Has(key) }

// Install installs candidate/version and refreshes the catalog state.
// Starting an install for a key that is already being installed or
// uninstalled does nothing and returns nil. A backend failure is
// returned; the task is left failed until it is evicted. A key that is
// not usable as a path is rejected before any task starts.
func (m *Manager) Install(ctx context.Context, candidate, version string) error {
	key := sdk.NewKey(candidate, version)
	if err := key.Validate(); err != nil {
		return fmt.Errorf("installing %s: %w", key, err)
	}
	ran, err := m.guard.Do(key, func() error {
		m.tasks.StartTask(candidate, version)
		if _, err := m.backend.Install(ctx, candidate, version); err != nil {
			// No-op when the backend already reported the failure.
			m.tasks.ApplyCompletionEvent(candidate, version, false, err.Error())
			return fmt.Errorf("installing %s: %w", key, err)
		}
		m.Refresh(ctx, candidate)
		return nil
	})
	if !ran {
		m.log.Info("operation already in progress", zap.Stringer("key", key), zap.String("op", "install"))
	}
	return err
}

// Uninstall removes candidate/version and refreshes the catalog state.
// It shares the dedup key with Install.
func (m *Manager) Uninstall(ctx context.Context, candidate, version string) error {
	key := sdk.NewKey(candidate, version)
	if err := key.Validate(); err != nil {
		return fmt.Errorf("uninstalling %s: %w", key, err)
	}
	ran, err := m.guard.Do(key, func() error {
		if err := m.backend.Uninstall(ctx, candidate, version); err != nil {
			return fmt.Errorf("uninstalling %s: %w", key, err)
		}
		m.Refresh(ctx, candidate)
		return nil
	})
	if !ran {
		m.log.Info("operation already in progress", zap.Stringer("key", key), zap.String("op", "uninstall"))
	}
	return err
}

// SetDefault makes version the default of candidate and refreshes the
// version list and current default.
func (m *Manager) SetDefault(ctx context.Context, candidate, version string) error {
	if err := m.backend.SetDefault(ctx, candidate, version); err != nil {
		return fmt.Errorf("setting default %s: %w", sdk.NewKey(candidate, version), err)
	}
	m.refresh(ctx, m.versionsQuery(candidate), m.currentQuery(candidate))
	return nil
}

// Refresh re-runs every query for candidate plus the statistics. Query
// failures are logged and returned by name; the stored state keeps the
// previous value for a failed query.
func (m *Manager) Refresh(ctx context.Context, candidate string) refresh.Result {
	return m.refresh(ctx,
		m.versionsQuery(candidate),
		m.installedQuery(candidate),
		m.currentQuery(candidate),
		m.statisticsQuery(),
	)
}

// State returns a copy of the refreshed state.
func (m *Manager) State() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Snapshot{
		Candidates:  make(map[string]CandidateState, len(m.state.Candidates)),
		Statistics:  m.state.Statistics,
		RefreshedAt: m.state.RefreshedAt,
	}
	for name, cs := range m.state.Candidates {
		out.Candidates[name] = CandidateState{
			Versions:  slices.Clone(cs.Versions),
			Installed: slices.Clone(cs.Installed),
			Current:   cs.Current,
		}
	}
	return out
}

// CandidateNames returns the names of candidates present in the state, sorted.
func (s Snapshot) CandidateNames() []string {
	return slices.Sorted(maps.Keys(s.Candidates))
}

func (m *Manager) refresh(ctx context.Context, queries ...refresh.Query) refresh.Result {
	res, err := m.refresher.Refresh(ctx, queries...)
	if err != nil {
		m.log.Debug("refresh settle interrupted", zap.Error(err))
	}
	m.mu.Lock()
	m.state.RefreshedAt = time.Now()
	m.mu.Unlock()
	return res
}

func (m *Manager) versionsQuery(candidate string) refresh.Query {
	return refresh.Query{Name: QueryVersions, Run: func(ctx context.Context) error {
		versions, err := m.catalog.ListVersions(ctx, candidate, false)
		if err != nil {
			return err
		}
		m.updateCandidate(candidate, func(cs *CandidateState) { cs.Versions = versions })
		return nil
	}}
}

func (m *Manager) installedQuery(candidate string) refresh.Query {
	return refresh.Query{Name: QueryInstalled, Run: func(context.Context) error {
		installed, err := m.catalog.ScanInstalled(candidate)
		if err != nil {
			return err
		}
		m.updateCandidate(candidate, func(cs *CandidateState) { cs.Installed = installed })
		return nil
	}}
}

func (m *Manager) currentQuery(candidate string) refresh.Query {
	return refresh.Query{Name: QueryCurrent, Run: func(context.Context) error {
		current, err := m.catalog.CurrentVersion(candidate)
		if err != nil {
			return err
		}
		m.updateCandidate(candidate, func(cs *CandidateState) { cs.Current = current })
		return nil
	}}
}

func (m *Manager) statisticsQuery() refresh.Query {
	return refresh.Query{Name: QueryStatistics, Run: func(ctx context.Context) error {
		stats, err := m.catalog.Statistics(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.state.Statistics = stats
		m.mu.Unlock()
		return nil
	}}
}

func (m *Manager) updateCandidate(candidate string, fn func(*CandidateState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs := m.state.Candidates[candidate]
	fn(&cs)
	m.state.Candidates[candidate] = cs
}
