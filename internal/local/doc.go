// Package local reads and edits an SDKMAN-compatible SDK tree on disk:
//
//	<root>/candidates/<candidate>/<version>/
//	<root>/candidates/<candidate>/current -> <version>
//
// Scanner answers which versions are installed and which one is the
// default; Links moves the default.
package local
