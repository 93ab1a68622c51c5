// Package config manages user-level settings stored at ~/.sdkdesk/config.yaml:
// the SDK tree location, catalog endpoint and proxy, download limits, cache
// lifetime and logging. Values can be overridden with SDKDESK_* environment
// variables, and a config file can be checked against an embedded schema.
package config
