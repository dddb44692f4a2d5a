package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/wikarden/internal/apperr"
)

// ExcludedDir names directories that are never indexed or watched.
const ExcludedDir = ".git"

// Directory is an in-memory snapshot of a filesystem subtree, with files
// grouped by extension. It is immutable once Index returns.
type Directory struct {
	Base        string
	Directories []*Directory
	Files       map[string][]string // extension without dot, "" for none
}

// Index scans path recursively. path is resolved to an absolute, symlink-free
// form first.
func Index(path string) (*Directory, error) {
	base, err := canonical(path)
	if err != nil {
		return nil, &apperr.IOError{Op: "resolve", Path: path, Err: err}
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, &apperr.IOError{Op: "stat", Path: base, Err: err}
	}
	if !info.IsDir() {
		return nil, apperr.NotADirectory(base)
	}
	return scan(base)
}

func scan(base string) (*Directory, error) {
	d := &Directory{Base: base, Files: make(map[string][]string)}

	entries, err := readDirUnsorted(base)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		p := filepath.Join(base, e.Name())
		if e.IsDir() {
			if e.Name() == ExcludedDir {
				continue
			}
			child, err := scan(p)
			if err != nil {
				return nil, err
			}
			d.Directories = append(d.Directories, child)
			continue
		}
		ext := Extension(e.Name())
		d.Files[ext] = append(d.Files[ext], p)
	}
	return d, nil
}

// readDirUnsorted keeps filesystem enumeration order; os.ReadDir sorts.
func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, &apperr.IOError{Op: "open dir", Path: dir, Err: err}
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, &apperr.IOError{Op: "read dir", Path: dir, Err: err}
	}
	return entries, nil
}

// Extension returns the text after the final dot of a file name. A name
// whose only dot is the leading one (".env") has no extension.
func Extension(name string) string {
	name = filepath.Base(name)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}

// FindAllByExtension lists matching files depth-first: this directory's
// files, then each child's in order.
func (d *Directory) FindAllByExtension(ext string) []string {
	out := append([]string(nil), d.Files[ext]...)
	for _, child := range d.Directories {
		out = append(out, child.FindAllByExtension(ext)...)
	}
	return out
}

// Extensions returns every extension present in the subtree, sorted.
func (d *Directory) Extensions() []string {
	seen := make(map[string]struct{})
	d.collectExtensions(seen)
	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (d *Directory) collectExtensions(seen map[string]struct{}) {
	for ext := range d.Files {
		seen[ext] = struct{}{}
	}
	for _, child := range d.Directories {
		child.collectExtensions(seen)
	}
}

// Name is the final path component of Base.
func (d *Directory) Name() string {
	return filepath.Base(d.Base)
}

// GetDirectory returns the subtree rooted exactly at path, or nil when path
// does not resolve or lies outside this tree.
func (d *Directory) GetDirectory(path string) *Directory {
	p, err := canonical(path)
	if err != nil {
		return nil
	}
	return d.lookup(p)
}

func (d *Directory) lookup(p string) *Directory {
	if p == d.Base {
		return d
	}
	rel, ok := strings.CutPrefix(p, withSeparator(d.Base))
	if !ok {
		return nil
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	for _, child := range d.Directories {
		if child.Name() == first {
			return child.lookup(p)
		}
	}
	return nil
}

// Without returns a copy of the tree that omits the subtree rooted at path.
// Nodes off the pruned branch are shared with d. The result is d itself when
// path is not a directory of the tree.
func (d *Directory) Without(path string) *Directory {
	p, err := canonical(path)
	if err != nil || d.lookup(p) == nil {
		return d
	}
	if p == d.Base {
		return &Directory{Base: d.Base, Files: make(map[string][]string)}
	}
	return d.prune(p)
}

func (d *Directory) prune(p string) *Directory {
	if p == d.Base {
		return nil
	}
	if !IsWithin(p, d.Base) {
		return d
	}
	cp := &Directory{Base: d.Base, Files: d.Files}
	for _, child := range d.Directories {
		if pruned := child.prune(p); pruned != nil {
			cp.Directories = append(cp.Directories, pruned)
		}
	}
	return cp
}

// ClonePolicy decides whether src is mirrored at dst as a symbolic link.
type ClonePolicy func(src, dst string) bool

// CloneStructure mirrors this tree under target. Files accepted by policy are
// symlinked unless dst already exists; subdirectories are created as needed.
func (d *Directory) CloneStructure(target string, policy ClonePolicy) error {
	exts := make([]string, 0, len(d.Files))
	for ext := range d.Files {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		for _, src := range d.Files[ext] {
			rel, err := filepath.Rel(d.Base, src)
			if err != nil {
				return &apperr.IOError{Op: "relative path", Path: src, Err: err}
			}
			dst := filepath.Join(target, rel)
			if !policy(src, dst) || exists(dst) {
				continue
			}
			if err := os.Symlink(src, dst); err != nil {
				return &apperr.IOError{Op: "symlink", Path: dst, Err: err}
			}
		}
	}

	for _, child := range d.Directories {
		dst := filepath.Join(target, child.Name())
		if !exists(dst) {
			if err := os.Mkdir(dst, 0o755); err != nil {
				return &apperr.IOError{Op: "mkdir", Path: dst, Err: err}
			}
		}
		if err := child.CloneStructure(dst, policy); err != nil {
			return err
		}
	}
	return nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// exists reports whether something, including a dangling symlink, is at p.
func exists(p string) bool {
	_, err := os.Lstat(p)
	return !errors.Is(err, fs.ErrNotExist)
}

func withSeparator(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}
