package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdkdesk/sdkdesk/internal/platform"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

// Links manages the current link of each candidate.
type Links struct {
	layout sdkhome.Layout
}

// NewLinks returns a Links for the tree at root.
func NewLinks(root string) *Links {
	return &Links{layout: sdkhome.Layout{Root: root}}
}

// SetDefault points candidate's current link at version. The version must
// be installed. An existing link is replaced even if it dangles.
func (l *Links) SetDefault(candidate, version string) error {
	if err := l.layout.CheckVersion(candidate, version); err != nil {
		return fmt.Errorf("setting default %s %s: %w", candidate, version, err)
	}
	target := l.layout.VersionDir(candidate, version)
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s %s: %w", candidate, version, ErrNotInstalled)
	}
	if err := platform.ReplaceSymlink(target, l.layout.Current(candidate)); err != nil {
		return fmt.Errorf("setting default %s %s: %w", candidate, version, err)
	}
	return nil
}

// UnsetDefault removes candidate's current link. No link is not an error.
func (l *Links) UnsetDefault(candidate string) error {
	if err := l.layout.CheckCandidate(candidate); err != nil {
		return fmt.Errorf("unsetting default %s: %w", candidate, err)
	}
	err := platform.RemoveSymlink(l.layout.Current(candidate))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unsetting default %s: %w", candidate, err)
	}
	return nil
}

// IsValid reports whether candidate has a current link to an existing
// version directory.
func (l *Links) IsValid(candidate string) bool {
	link := l.layout.Current(candidate)
	target, err := platform.ReadSymlinkTarget(link)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	info, err := os.Stat(target)
	return err == nil && info.IsDir()
}
