// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks change it instead of
// editing string literals across the tree.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	SDKManDir   string `yaml:"sdkman_dir"`
	APIBaseURL  string `yaml:"api_base_url"`
	UserAgent   string `yaml:"user_agent"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:     "sdkdesk",
			DisplayName: "SDK Desk",
			Description: "Install and switch JVM SDKs",
			HomeDir:     ".sdkdesk",
			EnvPrefix:   "SDKDESK",
			GoModule:    "github.com/sdkdesk/sdkdesk",
			SDKManDir:   ".sdkman",
			APIBaseURL:  "https://api.sdkman.io/2",
			UserAgent:   "sdkdesk",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "sdkdesk").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME holding config and cache.
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "SDKDESK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// SDKManDir returns the default SDK tree directory name under $HOME.
func SDKManDir() string { load(); return defaults.SDKManDir }

// APIBaseURL returns the default catalog API endpoint.
func APIBaseURL() string { load(); return defaults.APIBaseURL }

// UserAgent returns the User-Agent product token sent to the catalog API.
func UserAgent() string { load(); return defaults.UserAgent }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("DIR") → "SDKDESK_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
