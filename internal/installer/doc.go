// Package installer downloads SDK archives from the broker and unpacks
// them into the SDK tree.
//
// Progress is published on an events.Publisher while the operation runs:
// download-progress while bytes arrive, install-progress while the
// archive is unpacked, and exactly one install-complete at the end,
// successful or not. The version directory only appears once extraction
// has fully succeeded.
package installer
