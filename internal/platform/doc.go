// Package platform provides the filesystem operations the SDK tree needs:
// the "current" version link and executable bits. On Unix it uses native
// symlinks and chmod. On Windows without symlink rights the link is
// recorded in a .target sidecar file instead.
package platform
