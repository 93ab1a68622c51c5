// Package manager ties the operation tracker to the installer and the
// catalog. A Manager owns one task registry, one event listener, one
// dedup guard and one refresh coordinator; it is created by New and torn
// down by Shutdown.
package manager
