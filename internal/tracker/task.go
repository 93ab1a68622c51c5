package tracker

import "github.com/sdkdesk/sdkdesk/internal/sdk"

// Status is the lifecycle state of a tracked operation.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusInstalling  Status = "installing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// IsTerminal reports whether no further event may change a task in this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProgressKind tells which phase a progress value belongs to.
type ProgressKind string

const (
	KindDownload ProgressKind = "download"
	KindInstall  ProgressKind = "install"
)

// Progress is the last reported progress of a task.
type Progress struct {
	Kind       ProgressKind `json:"type"`
	Percentage int          `json:"percentage"`
	Message    string       `json:"message"`
}

// Task is the tracked state of one in-flight or recently finished operation.
// Values returned by the Registry are copies.
type Task struct {
	Key      sdk.Key  `json:"-"`
	Status   Status   `json:"status"`
	Progress Progress `json:"progress"`
}

// Candidate returns the package family of the task.
func (t Task) Candidate() string { return t.Key.Candidate }

// Version returns the version of the task.
func (t Task) Version() string { return t.Key.Version }

// Change describes one Registry mutation. Task is nil when the key was removed.
type Change struct {
	Key  sdk.Key
	Task *Task
}

// Removed reports whether the change removed the key.
func (c Change) Removed() bool { return c.Task == nil }
