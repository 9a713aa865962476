package repo

import (
	"os"
	"path/filepath"
)

// IsRoot reports whether dir contains a .hg directory
func IsRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".hg"))
	return err == nil && info.IsDir()
}

// FindRoot returns the nearest directory at or above start that is a
// repository root. start may be a file or a path that does not exist yet.
func FindRoot(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	seen := make(map[string]bool)
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		if seen[dir] {
			return "", false
		}
		seen[dir] = true

		if IsRoot(dir) {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
