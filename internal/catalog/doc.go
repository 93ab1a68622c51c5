// Package catalog talks to the SDKMAN candidates API and turns its plain
// text listings into sdk.Candidate and sdk.Version values.
//
// Responses are cached as JSON files under the config directory and reused
// until they are older than the configured TTL. Version listings are
// annotated with the local install state on every read, so a stale cache
// never shows an uninstalled version as installed.
package catalog
