package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wikarden/internal/apperr"
)

// writeTree creates files (relative path → content) under a fresh temp dir
// and returns its canonical path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestIndex_GroupsByExtension(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":           "# Home",
		"guide/setup.md":     "setup",
		"guide/img/logo.png": "png",
		"LICENSE":            "mit",
		".env":               "X=1",
		".git/HEAD":          "ref",
		"notes.git/keep.md":  "kept",
	})

	dir, err := Index(root)
	require.NoError(t, err)

	assert.Equal(t, root, dir.Base)
	assert.Equal(t, []string{filepath.Join(root, "index.md")}, dir.Files["md"])
	assert.ElementsMatch(t, []string{filepath.Join(root, "LICENSE"), filepath.Join(root, ".env")}, dir.Files[""])

	names := make([]string, 0, len(dir.Directories))
	for _, d := range dir.Directories {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"guide", "notes.git"}, names, ".git must be skipped by exact name only")

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "index.md"),
		filepath.Join(root, "guide/setup.md"),
		filepath.Join(root, "notes.git/keep.md"),
	}, dir.FindAllByExtension("md"))
	assert.Equal(t, []string{"", "md", "png"}, dir.Extensions())
}

func TestIndex_FindAllIsDepthFirst(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md":       "",
		"sub/b.md":   "",
		"sub/x/c.md": "",
	})
	dir, err := Index(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "sub/b.md"),
		filepath.Join(root, "sub/x/c.md"),
	}, dir.FindAllByExtension("md"))
	assert.Empty(t, dir.FindAllByExtension("rst"))
}

func TestIndex_Completeness(t *testing.T) {
	files := map[string]string{
		"a.md": "", "b.txt": "", "c": "", "d/e.md": "", "d/f.css": "",
		"d/g/h.md": "", "d/g/i.png": "", "j/k/l/m.md": "", ".git/config": "",
	}
	root := writeTree(t, files)

	count := func() (int, map[string]int) {
		dir, err := Index(root)
		require.NoError(t, err)
		seen := make(map[string]struct{})
		perExt := make(map[string]int)
		for _, ext := range dir.Extensions() {
			for _, p := range dir.FindAllByExtension(ext) {
				_, dup := seen[p]
				require.False(t, dup, "duplicate %s", p)
				seen[p] = struct{}{}
				perExt[ext]++
			}
		}
		return len(seen), perExt
	}

	n, first := count()
	assert.Equal(t, len(files)-1, n)
	_, second := count()
	assert.Equal(t, first, second)
}

func TestIndex_Errors(t *testing.T) {
	root := writeTree(t, map[string]string{"file.md": "x"})

	_, err := Index(filepath.Join(root, "file.md"))
	assert.ErrorIs(t, err, apperr.ErrNotADirectory)

	_, err = Index(filepath.Join(root, "missing"))
	var ioErr *apperr.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestIndex_ResolvesSymlinkedRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": ""})
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(root, link))

	dir, err := Index(link)
	require.NoError(t, err)
	assert.Equal(t, root, dir.Base)
}

func TestGetDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/b/c.md": "",
		"a/d.md":   "",
		"e/f.md":   "",
	})
	dir, err := Index(root)
	require.NoError(t, err)

	assert.Same(t, dir, dir.GetDirectory(root))

	sub := dir.GetDirectory(filepath.Join(root, "a", "b"))
	require.NotNil(t, sub)
	assert.Equal(t, filepath.Join(root, "a", "b"), sub.Base)

	assert.Nil(t, dir.GetDirectory(filepath.Join(root, "missing")))
	assert.Nil(t, dir.GetDirectory(t.TempDir()))
	assert.Nil(t, dir.GetDirectory(filepath.Join(root, "a", "d.md")))
}

func TestCloneStructure(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":        "# Home",
		"style.css":       "body{}",
		"guide/setup.md":  "setup",
		"guide/shot.png":  "png",
		"guide/deep/x.js": "js",
	})
	out, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "style.css"), []byte("existing"), 0o644))

	dir, err := Index(root)
	require.NoError(t, err)

	var offered []string
	err = dir.CloneStructure(out, func(src, dst string) bool {
		rel, _ := filepath.Rel(out, dst)
		offered = append(offered, rel)
		return Extension(src) != "md"
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"index.md", "style.css", "guide/setup.md", "guide/shot.png", "guide/deep/x.js",
	}, offered)

	target, err := os.Readlink(filepath.Join(out, "guide", "shot.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "guide", "shot.png"), target)

	_, err = os.Lstat(filepath.Join(out, "guide", "setup.md"))
	assert.True(t, os.IsNotExist(err), "markup must be left for rendering")

	existing, err := os.ReadFile(filepath.Join(out, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(existing), "existing destinations are kept")

	info, err := os.Stat(filepath.Join(out, "guide", "deep"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A second run over the same output is a no-op.
	require.NoError(t, dir.CloneStructure(out, func(string, string) bool { return true }))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a.md":       "md",
		"a.tar.gz":   "gz",
		"Makefile":   "",
		".gitignore": "",
		"trailing.":  "",
	}
	for name, want := range tests {
		assert.Equal(t, want, Extension(name), name)
	}
}

func TestWithout(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":          "",
		"guide/setup.md":    "",
		"site/index.html":   "",
		"site/deep/page.md": "",
	})
	dir, err := Index(root)
	require.NoError(t, err)

	pruned := dir.Without(filepath.Join(root, "site"))
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "index.md"),
		filepath.Join(root, "guide/setup.md"),
	}, pruned.FindAllByExtension("md"))
	assert.Nil(t, pruned.GetDirectory(filepath.Join(root, "site")))
	assert.Len(t, dir.Directories, 2, "the original tree is not modified")

	assert.Same(t, dir, dir.Without(filepath.Join(root, "missing")))
	assert.Same(t, dir, dir.Without(t.TempDir()))
}
