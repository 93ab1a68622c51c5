package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotLink is returned when a path expected to be a link is a regular
// file or directory.
var ErrNotLink = errors.New("not a symlink")

const sidecarSuffix = ".target"

// CreateSymlink creates link pointing to target. On Windows, if native
// symlinks are unavailable, the target is written to a sidecar file.
func CreateSymlink(target, link string) error {
	err := os.Symlink(target, link)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	if werr := os.WriteFile(link+sidecarSuffix, []byte(target), 0644); werr != nil {
		return fmt.Errorf("symlink fallback failed: %w", errors.Join(err, werr))
	}
	return nil
}

// ReplaceSymlink points link at target, replacing an existing link even
// if it dangles. A regular file or directory at link is left alone and
// ErrNotLink is returned.
func ReplaceSymlink(target, link string) error {
	if err := RemoveSymlink(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return CreateSymlink(target, link)
}

// RemoveSymlink removes a symlink or its sidecar. Removing a path that is
// not a link fails with ErrNotLink.
func RemoveSymlink(path string) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0:
		return fmt.Errorf("%s: %w", path, ErrNotLink)
	case err == nil:
		err = os.Remove(path)
	}

	sidecar := path + sidecarSuffix
	if serr := os.Remove(sidecar); serr == nil {
		return nil
	}
	return err
}

// ReadSymlinkTarget returns the target of a symlink or of its sidecar.
func ReadSymlinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err == nil {
		return target, nil
	}
	data, readErr := os.ReadFile(path + sidecarSuffix)
	if readErr != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// IsDangling reports whether path is a link whose target does not exist.
func IsDangling(path string) bool {
	target, err := ReadSymlinkTarget(path)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	_, err = os.Stat(target)
	return errors.Is(err, os.ErrNotExist)
}
