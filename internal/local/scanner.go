package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sdkdesk/sdkdesk/internal/platform"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

// ErrNotInstalled is returned when a version directory does not exist.
var ErrNotInstalled = errors.New("version not installed")

// Scanner inspects an SDK tree. It holds no state beyond the root, so the
// answers always reflect the disk.
type Scanner struct {
	layout sdkhome.Layout
}

// NewScanner returns a Scanner for the tree at root.
func NewScanner(root string) *Scanner {
	return &Scanner{layout: sdkhome.Layout{Root: root}}
}

// Layout returns the tree layout.
func (s *Scanner) Layout() sdkhome.Layout { return s.layout }

// InstalledVersions lists the installed versions of candidate, sorted.
// A missing candidate directory yields an empty list.
func (s *Scanner) InstalledVersions(candidate string) ([]string, error) {
	return listDirs(s.layout.CandidateDir(candidate))
}

// IsInstalled reports whether candidate/version has an install directory.
func (s *Scanner) IsInstalled(candidate, version string) bool {
	info, err := os.Stat(s.layout.VersionDir(candidate, version))
	return err == nil && info.IsDir()
}

// CurrentVersion returns the version the current link points at, or ""
// when no default is set or the link dangles.
func (s *Scanner) CurrentVersion(candidate string) (string, error) {
	link := s.layout.Current(candidate)
	target, err := platform.ReadSymlinkTarget(link)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s link of %s: %w", sdkhome.CurrentLink, candidate, err)
	}
	if platform.IsDangling(link) {
		return "", nil
	}
	return filepath.Base(filepath.Clean(target)), nil
}

// InstalledCandidates lists candidates with at least one installed version.
func (s *Scanner) InstalledCandidates() ([]string, error) {
	names, err := listDirs(s.layout.Candidates())
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, name := range names {
		versions, err := s.InstalledVersions(name)
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			out = append(out, name)
		}
	}
	return out, nil
}

// listDirs returns the sorted names of the directories in dir, following
// symlinks and skipping the current link.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == sdkhome.CurrentLink {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
