// Package sdkhome resolves the on-disk layout: the SDKMAN-compatible SDK
// tree and the application's own config and cache directory.
package sdkhome

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// Directory names inside the SDK tree and the app directory.
const (
	CandidatesDir = "candidates"
	CurrentLink   = "current"
	TmpDir        = "tmp"
	BinDir        = "bin"
	CacheDir      = "cache"
)

// Permission constants.
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

// sdkmanEnv is the variable the SDKMAN shell tooling itself honours.
const sdkmanEnv = "SDKMAN_DIR"

// SDKManRoot returns the SDK tree root. It checks SDKDESK_SDKMAN_DIR, then
// SDKMAN_DIR, then falls back to ~/.sdkman.
func SDKManRoot() (string, error) {
	for _, env := range []string{branding.EnvVar("SDKMAN_DIR"), sdkmanEnv} {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.SDKManDir()), nil
}

// AppDir returns the app config directory. It checks SDKDESK_HOME first,
// then falls back to ~/.sdkdesk.
func AppDir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// Layout addresses paths inside an SDK tree.
type Layout struct {
	Root string
}

// Candidates returns <root>/candidates.
func (l Layout) Candidates() string {
	return filepath.Join(l.Root, CandidatesDir)
}

// CandidateDir returns the directory holding every version of candidate.
func (l Layout) CandidateDir(candidate string) string {
	return filepath.Join(l.Candidates(), candidate)
}

// VersionDir returns the install directory of candidate/version.
func (l Layout) VersionDir(candidate, version string) string {
	return filepath.Join(l.CandidateDir(candidate), version)
}

// CheckCandidate reports whether candidate names a directory directly
// under Candidates.
func (l Layout) CheckCandidate(candidate string) error {
	if err := sdk.ValidateName(candidate); err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	return nil
}

// CheckVersion reports whether candidate/version names a directory directly
// under CandidateDir. The current link name is reserved.
func (l Layout) CheckVersion(candidate, version string) error {
	if err := sdk.NewKey(candidate, version).Validate(); err != nil {
		return err
	}
	if version == CurrentLink {
		return fmt.Errorf("version: %w: %q is reserved", sdk.ErrInvalidName, version)
	}
	return nil
}

// Current returns the path of candidate's default-version link.
func (l Layout) Current(candidate string) string {
	return filepath.Join(l.CandidateDir(candidate), CurrentLink)
}

// Tmp returns the scratch directory for downloads.
func (l Layout) Tmp() string {
	return filepath.Join(l.Root, TmpDir)
}
