package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/wikarden/internal/apperr"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // canonical path of the site or source root
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := canonical(root)
	if err != nil {
		return nil, &apperr.IOError{Op: "resolve", Path: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &apperr.IOError{Op: "stat", Path: abs, Err: err}
	}
	if !info.IsDir() {
		return nil, apperr.NotADirectory(abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the canonical root directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a path against the root and rejects any result that
// escapes it. Absolute paths are accepted only when they already lie under root.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	abs := filepath.Clean(rel)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.root, abs)
	}
	if !IsWithin(abs, f.root) {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// Read returns the raw bytes of a file under root.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wikarden-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// OutputPath maps a source file onto the output tree: same position relative
// to the roots, with the extension replaced by ext.
func OutputPath(sourceRoot, outputRoot, src, ext string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, src)
	if err != nil {
		return "", fmt.Errorf("storage: output path: %w", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("storage: %s is outside %s", src, sourceRoot)
	}
	return filepath.Join(outputRoot, ReplaceExtension(rel, ext)), nil
}

// ReplaceExtension swaps the final extension of p for ext (no dot).
func ReplaceExtension(p, ext string) string {
	if e := Extension(filepath.Base(p)); e != "" {
		p = strings.TrimSuffix(p, "."+e)
	}
	if ext == "" {
		return p
	}
	return p + "." + ext
}

