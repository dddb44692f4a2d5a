package binder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wikarden/internal/apperr"
	"github.com/starford/wikarden/internal/parser"
	"github.com/starford/wikarden/internal/storage"
)

type fixture struct {
	root   string
	tree   *storage.Directory
	binder *Binder
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	tree, err := storage.Index(root)
	require.NoError(t, err)
	return &fixture{
		root:   root,
		tree:   tree,
		binder: New(tree, tree.FindAllByExtension("md"), "md", "html"),
	}
}

func (f *fixture) parse(t *testing.T, rel string) (*parser.Document, string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := parser.Parse(data)
	require.NoError(t, err)
	return doc, path
}

func TestBind_ResolvesRelativeLocations(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":             "Start with {setup} or *see {faq}*.",
		"guide/setup.md":       "Back to {index}.",
		"guide/deep/faq.md":    "faq",
		"guide/deep/notes.txt": "",
	})

	doc, path := f.parse(t, "index.md")
	resolved, err := f.binder.Bind(doc, path)
	require.NoError(t, err)

	links := doc.InterLinks()
	require.Len(t, links, 2)
	assert.Equal(t, "guide/setup.html", links[0].Location)
	assert.Equal(t, "guide/deep/faq.html", links[1].Location)
	require.Len(t, resolved, 2)
	assert.Equal(t, filepath.Join(f.root, "guide/setup.md"), resolved[0].Target)
	assert.Equal(t, KindPage, resolved[0].Kind)

	doc, path = f.parse(t, "guide/setup.md")
	_, err = f.binder.Bind(doc, path)
	require.NoError(t, err)
	assert.Equal(t, "../index.html", doc.InterLinks()[0].Location)
}

func TestBind_LocationPointsAtTarget(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a/b/source.md":  "{one} {two} {three}",
		"one.md":         "",
		"a/x/two.md":     "",
		"a/b/c/three.md": "",
	})
	doc, path := f.parse(t, "a/b/source.md")
	resolved, err := f.binder.Bind(doc, path)
	require.NoError(t, err)

	for _, r := range resolved {
		landed := filepath.Join(filepath.Dir(path), filepath.FromSlash(r.Location))
		assert.Equal(t, storage.ReplaceExtension(r.Target, "html"), landed)
	}
}

func TestBind_UnresolvedLeavesDocumentUntouched(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "{setup} then {nowhere}",
		"setup.md": "",
	})
	doc, path := f.parse(t, "index.md")

	_, err := f.binder.Bind(doc, path)
	require.ErrorIs(t, err, apperr.ErrUnresolvedLink)

	var bindErr *apperr.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "nowhere", bindErr.Name)
	assert.Equal(t, path, bindErr.Document)

	for _, l := range doc.InterLinks() {
		assert.Empty(t, l.Location)
	}
}

func TestBind_AmbiguousName(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":    "{setup}",
		"v1/setup.md": "",
		"v2/setup.md": "",
	})
	doc, path := f.parse(t, "index.md")

	_, err := f.binder.Bind(doc, path)
	require.ErrorIs(t, err, apperr.ErrAmbiguousLink)

	var bindErr *apperr.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Len(t, bindErr.Matches, 2)
}

func TestBind_NoCaseFolding(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "{Setup}",
		"setup.md": "",
	})
	doc, path := f.parse(t, "index.md")
	_, err := f.binder.Bind(doc, path)
	assert.ErrorIs(t, err, apperr.ErrUnresolvedLink)
}

func TestBind_OnlyMarkupDocumentsMatchPages(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":  "{notes}",
		"notes.txt": "",
	})
	doc, path := f.parse(t, "index.md")
	_, err := f.binder.Bind(doc, path)
	assert.ErrorIs(t, err, apperr.ErrUnresolvedLink)
}

func TestBind_ImageInterLink(t *testing.T) {
	f := newFixture(t, map[string]string{
		"guide/page.md":   "{logo.png}\n^ Logo",
		"assets/logo.png": "png",
	})
	doc, path := f.parse(t, "guide/page.md")

	resolved, err := f.binder.Bind(doc, path)
	require.NoError(t, err)

	img := doc.Blocks[0].(*parser.Image)
	assert.Equal(t, "../assets/logo.png", img.Src)
	require.Len(t, resolved, 1)
	assert.Equal(t, KindImage, resolved[0].Kind)
}

func TestBind_SkipsCodeBlocks(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "```\n{missing}\n```\n`{also missing}`",
	})
	doc, path := f.parse(t, "index.md")
	resolved, err := f.binder.Bind(doc, path)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
