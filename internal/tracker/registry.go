package tracker

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// FailedRetention is how long a failed task stays visible before it is evicted.
const FailedRetention = 5000 * time.Millisecond

// Default progress messages.
const (
	MessageStarting   = "Starting..."
	MessageInstalling = "Installing..."
	MessageCompleted  = "Completed"
	MessageFailed     = "Failed"
)

// Timer is the handle of a scheduled eviction.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The default is time.AfterFunc.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	task  Task
	evict Timer
}

// Registry is the authoritative map from operation key to task state.
// All mutations are serialized; readers always observe whole tasks.
//
// Observers registered with Watch are called after each mutation, in
// mutation order, with mu released. They may read the Registry but must
// not mutate it synchronously.
type Registry struct {
	mu    sync.RWMutex
	tasks map[sdk.Key]*entry

	retention time.Duration
	schedule  Scheduler
	log       *zap.Logger

	// notifyMu is held by a writer from before it takes mu until its
	// watchers have returned. It is always acquired before mu.
	notifyMu   sync.Mutex
	watchersMu sync.RWMutex
	watchers   map[int]func(Change)
	nextWatch  int
}

// Option configures a Registry.
type Option func(*Registry)

// WithFailedRetention overrides how long failed tasks are kept.
func WithFailedRetention(d time.Duration) Option {
	return func(r *Registry) {
		r.retention = d
	}
}

// WithScheduler replaces the timer used for failed-task eviction.
func WithScheduler(s Scheduler) Option {
	return func(r *Registry) {
		r.schedule = s
	}
}

// WithLogger sets the logger used for dropped events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tasks:     make(map[sdk.Key]*entry),
		retention: FailedRetention,
		schedule:  afterFunc,
		log:       zap.NewNop(),
		watchers:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartTask inserts a fresh downloading task for candidate/version,
// replacing any existing task with the same key.
func (r *Registry) StartTask(candidate, version string) {
	key := sdk.NewKey(candidate, version)

	r.lock()
	if old, ok := r.tasks[key]; ok {
		stopEviction(old)
	}
	e := &entry{task: Task{
		Key:    key,
		Status: StatusDownloading,
		Progress: Progress{
			Kind:       KindDownload,
			Percentage: 0,
			Message:    MessageStarting,
		},
	}}
	r.tasks[key] = e
	r.log.Debug("task started", zap.Stringer("key", key), zap.Int("tasks", len(r.tasks)))
	r.commit(changeOf(e))
}

// ApplyDownloadEvent records download progress. Events for unknown or
// finished tasks are ignored. The percentage never goes backwards.
func (r *Registry) ApplyDownloadEvent(candidate, version string, percentage float64, downloaded, total int64) {
	r.update(sdk.NewKey(candidate, version), "download-progress", func(t *Task) {
		p := roundPercentage(percentage)
		if p < t.Progress.Percentage {
			p = t.Progress.Percentage
		}
		t.Status = StatusDownloading
		t.Progress = Progress{
			Kind:       KindDownload,
			Percentage: p,
			Message:    fmt.Sprintf("%s/%s (%d%%)", sdk.FormatBytes(downloaded), sdk.FormatBytes(total), p),
		}
	})
}

// ApplyInstallEvent moves a task into the installing phase. The percentage
// reached while downloading is kept.
func (r *Registry) ApplyInstallEvent(candidate, version, message string) {
	if message == "" {
		message = MessageInstalling
	}
	r.update(sdk.NewKey(candidate, version), "install-progress", func(t *Task) {
		t.Status = StatusInstalling
		t.Progress.Kind = KindInstall
		t.Progress.Message = message
	})
}

// ApplyCompletionEvent finishes a task. Failed tasks are evicted after the
// retention period unless removed earlier; completed tasks stay until removed.
func (r *Registry) ApplyCompletionEvent(candidate, version string, success bool, message string) {
	key := sdk.NewKey(candidate, version)

	r.lock()
	e, ok := r.tasks[key]
	if !ok || e.task.Status.IsTerminal() {
		r.unlock()
		r.dropped(key, "install-complete", ok)
		return
	}

	status, fallback := StatusCompleted, MessageCompleted
	if !success {
		status, fallback = StatusFailed, MessageFailed
	}
	if message == "" {
		message = fallback
	}
	e.task.Status = status
	e.task.Progress = Progress{Kind: KindInstall, Percentage: 100, Message: message}

	if !success {
		e.evict = r.schedule(r.retention, func() { r.evict(key, e) })
	}
	r.commit(changeOf(e))
}

// RemoveTask deletes the task for key and cancels its pending eviction.
// It reports whether a task was present.
func (r *Registry) RemoveTask(key sdk.Key) bool {
	r.lock()
	e, ok := r.tasks[key]
	if !ok {
		r.unlock()
		return false
	}
	stopEviction(e)
	delete(r.tasks, key)
	r.commit(Change{Key: key})
	return true
}

// ClearAllTasks removes every task and cancels all pending evictions.
func (r *Registry) ClearAllTasks() {
	r.lock()
	removed := make([]sdk.Key, 0, len(r.tasks))
	for key, e := range r.tasks {
		stopEviction(e)
		removed = append(removed, key)
	}
	r.tasks = make(map[sdk.Key]*entry)
	sortKeys(removed)

	changes := make([]Change, len(removed))
	for i, key := range removed {
		changes[i] = Change{Key: key}
	}
	r.commit(changes...)
}

// Get returns a copy of the task for key.
func (r *Registry) Get(key sdk.Key) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tasks[key]
	if !ok {
		return Task{}, false
	}
	return e.task, true
}

// GetStatus returns the status of the task for key.
func (r *Registry) GetStatus(key sdk.Key) (Status, bool) {
	t, ok := r.Get(key)
	return t.Status, ok
}

// GetProgress returns the progress of the task for key.
func (r *Registry) GetProgress(key sdk.Key) (Progress, bool) {
	t, ok := r.Get(key)
	return t.Progress, ok
}

// IsOperating reports whether a task exists for key, whatever its status.
func (r *Registry) IsOperating(key sdk.Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[key]
	return ok
}

// List returns a snapshot of all tasks ordered by key.
func (r *Registry) List() []Task {
	r.mu.RLock()
	out := make([]Task, 0, len(r.tasks))
	for _, e := range r.tasks {
		out = append(out, e.task)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Watch registers fn to be called after every mutation. The returned func
// unregisters it and may be called more than once.
func (r *Registry) Watch(fn func(Change)) (unwatch func()) {
	r.watchersMu.Lock()
	id := r.nextWatch
	r.nextWatch++
	r.watchers[id] = fn
	r.watchersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.watchersMu.Lock()
			delete(r.watchers, id)
			r.watchersMu.Unlock()
		})
	}
}

// update applies fn to a non-terminal task.
func (r *Registry) update(key sdk.Key, topic string, fn func(*Task)) {
	r.lock()
	e, ok := r.tasks[key]
	if !ok || e.task.Status.IsTerminal() {
		r.unlock()
		r.dropped(key, topic, ok)
		return
	}
	fn(&e.task)
	r.commit(changeOf(e))
}

// evict removes a failed task when its timer fires, unless the entry was
// replaced or removed in the meantime.
func (r *Registry) evict(key sdk.Key, e *entry) {
	r.lock()
	if cur, ok := r.tasks[key]; !ok || cur != e {
		r.unlock()
		return
	}
	delete(r.tasks, key)
	r.log.Debug("failed task evicted", zap.Stringer("key", key))
	r.commit(Change{Key: key})
}

// lock takes notifyMu then mu. Every writer goes through it.
func (r *Registry) lock() {
	r.notifyMu.Lock()
	r.mu.Lock()
}

// unlock releases a writer that made no change.
func (r *Registry) unlock() {
	r.mu.Unlock()
	r.notifyMu.Unlock()
}

// commit releases mu and delivers changes to the watchers, then releases
// notifyMu. It must be called after lock.
func (r *Registry) commit(changes ...Change) {
	r.mu.Unlock()
	defer r.notifyMu.Unlock()

	r.watchersMu.RLock()
	if len(r.watchers) == 0 {
		r.watchersMu.RUnlock()
		return
	}
	ids := make([]int, 0, len(r.watchers))
	for id := range r.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), len(ids))
	for i, id := range ids {
		fns[i] = r.watchers[id]
	}
	r.watchersMu.RUnlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

func (r *Registry) dropped(key sdk.Key, topic string, known bool) {
	reason := "unknown key"
	if known {
		reason = "task already finished"
	}
	r.log.Debug("event ignored",
		zap.String("topic", topic),
		zap.Stringer("key", key),
		zap.String("reason", reason),
	)
}

func changeOf(e *entry) Change {
	t := e.task
	return Change{Key: t.Key, Task: &t}
}

func stopEviction(e *entry) {
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
}

func roundPercentage(p float64) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 100 {
		return 100
	}
	return int(math.Round(p))
}

func keyLess(a, b sdk.Key) bool {
	if a.Candidate != b.Candidate {
		return a.Candidate < b.Candidate
	}
	return a.Version < b.Version
}

func sortKeys(keys []sdk.Key) {
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
}
