package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// Relativize returns the path that leads from base to target. Both must be
// absolute. When base names an existing file its directory is used instead.
// The base is shortened one component at a time until it is a prefix of
// target (or the root is reached), and each removed component becomes "..".
func Relativize(base, target string) (string, bool) {
	if !filepath.IsAbs(base) || !filepath.IsAbs(target) {
		return "", false
	}
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		parent := filepath.Dir(base)
		if parent == base {
			return "", false
		}
		base = parent
	}

	ups := 0
	for !IsWithin(target, base) {
		parent := filepath.Dir(base)
		if parent == base {
			break
		}
		base = parent
		ups++
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(target, base), string(filepath.Separator))
	parts := make([]string, 0, ups+1)
	for range ups {
		parts = append(parts, "..")
	}
	parts = append(parts, rest)
	return filepath.Join(parts...), true
}

// IsWithin reports whether p is prefix or lies below it. Whole path
// components are compared, so /a/bc is not within /a/b.
func IsWithin(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, withSeparator(prefix))
}
