package assets

import (
	"os"
	"path/filepath"
)

// ResolveSound looks for the alert sound at path, then next to the
// executable. It returns the path found and whether it exists.
func ResolveSound(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if fileExists(path) {
		return path, true
	}
	if filepath.IsAbs(path) {
		return path, false
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), path)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return path, false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
