// Package pathutil confines file access to a root directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for error messages.
// For example, "/home/user/scenarios/hallway.yaml" becomes ".../scenarios/hallway.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// Within resolves path against root and returns the absolute result if it
// stays inside root after symlink resolution. Relative paths are taken
// relative to root.
func Within(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path validation failed: path is empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("path validation failed: path contains null byte")
	}

	rootAbs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve root: %w", err)
	}
	rootResolved, err := resolveExisting(rootAbs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve root: %w", err)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(rootAbs, path)
	}
	resolved, err := resolveExisting(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}

	if !isSubpath(resolved, rootResolved) {
		return "", fmt.Errorf("path validation failed: %q is outside %q", RedactPath(path), RedactPath(rootAbs))
	}
	return resolved, nil
}

// resolveExisting resolves symlinks on the deepest existing ancestor of p and
// re-appends the part that does not exist yet.
func resolveExisting(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(p)
	if parent == p {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(p))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(p)), nil
}

// isSubpath checks whether path is equal to or below base.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
