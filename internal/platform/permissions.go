package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ExecPerm is applied to files under an SDK's bin directory.
const ExecPerm os.FileMode = 0755

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// MakeExecutable sets ExecPerm on every regular file directly inside dir.
// A missing dir is not an error.
func MakeExecutable(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := Chmod(p, ExecPerm); err != nil {
			return n, fmt.Errorf("chmod %s: %w", p, err)
		}
		n++
	}
	return n, nil
}
