// Package cli defines the Cobra command tree for the sdkdesk CLI. Each file
// in this package registers one top-level command (install, list, default,
// etc.) with the root command. Commands delegate to internal packages for
// the work and only handle flag parsing, I/O formatting and progress output.
package cli
