// Package tracker keeps the live state of install and uninstall operations.
//
// A Registry maps each candidate/version key to a Task whose status moves
// from downloading to installing and ends as completed or failed. Progress
// arrives as installer events; a Listener subscribes to the three progress
// topics on an events.Subscriber and applies each payload to the Registry.
// Events for keys that were never started, or whose task already finished,
// are ignored. Failed tasks disappear on their own after FailedRetention;
// completed tasks stay until the caller removes them.
package tracker
