package sdk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is returned for candidate or version names that cannot
// be used as a single path element.
var ErrInvalidName = errors.New("invalid name")

// Key identifies one versioned package, e.g. java 21.0.2-tem.
// It is comparable and used directly as a map key.
type Key struct {
	Candidate string
	Version   string
}

// NewKey returns the key for candidate and version.
func NewKey(candidate, version string) Key {
	return Key{Candidate: candidate, Version: version}
}

// String renders the key as "<candidate>:<version>".
func (k Key) String() string {
	return k.Candidate + ":" + k.Version
}

// IsZero reports whether both parts are empty.
func (k Key) IsZero() bool {
	return k.Candidate == "" && k.Version == ""
}

// Validate checks that both parts are usable as directory names.
func (k Key) Validate() error {
	if err := ValidateName(k.Candidate); err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	if err := ValidateName(k.Version); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	return nil
}

// ValidateName rejects names that are empty, "." or "..", or that contain
// a path separator or a NUL byte.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// ParseKey parses "<candidate>:<version>" as typed on the command line.
// Only the first colon separates the parts.
func ParseKey(s string) (Key, error) {
	candidate, version, ok := strings.Cut(s, ":")
	if !ok || candidate == "" || version == "" {
		return Key{}, fmt.Errorf("invalid key %q: expected <candidate>:<version>", s)
	}
	k := NewKey(candidate, version)
	if err := k.Validate(); err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return k, nil
}
