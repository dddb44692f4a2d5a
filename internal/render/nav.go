package render

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/wikarden/internal/storage"
)

const indexName = "index"

// Breadcrumbs lists the directories from the tree root down to the one
// holding path. A directory is linked when it has an index document.
func Breadcrumbs(tree *storage.Directory, path, markupExt, outputExt string) []Crumb {
	rel, err := filepath.Rel(tree.Base, filepath.Dir(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}

	dirs := []string{tree.Base}
	if rel != "." {
		cur := tree.Base
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			cur = filepath.Join(cur, part)
			dirs = append(dirs, cur)
		}
	}

	crumbs := make([]Crumb, 0, len(dirs))
	for _, dir := range dirs {
		d := tree.GetDirectory(dir)
		if d == nil {
			continue
		}
		c := Crumb{Name: d.Name()}
		if idx, ok := indexDocument(d, markupExt); ok && idx != path {
			c.Href = link(path, idx, outputExt)
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}

// Navigation lists the subdirectories and sibling documents of path.
func Navigation(tree *storage.Directory, path, markupExt, outputExt string) []Crumb {
	d := tree.GetDirectory(filepath.Dir(path))
	if d == nil {
		return nil
	}

	var out []Crumb
	children := slices.Clone(d.Directories)
	slices.SortFunc(children, func(a, b *storage.Directory) int {
		return strings.Compare(a.Name(), b.Name())
	})
	for _, child := range children {
		c := Crumb{Name: child.Name() + "/"}
		if idx, ok := indexDocument(child, markupExt); ok {
			c.Href = link(path, idx, outputExt)
		}
		out = append(out, c)
	}

	docs := slices.Clone(d.Files[markupExt])
	slices.Sort(docs)
	for _, doc := range docs {
		out = append(out, Crumb{
			Name:    stem(doc),
			Href:    link(path, doc, outputExt),
			Current: doc == path,
		})
	}
	return out
}

func indexDocument(d *storage.Directory, markupExt string) (string, bool) {
	want := filepath.Join(d.Base, indexName+"."+markupExt)
	if slices.Contains(d.Files[markupExt], want) {
		return want, true
	}
	return "", false
}

func link(from, to, outputExt string) string {
	rel, ok := storage.Relativize(from, to)
	if !ok {
		return ""
	}
	return filepath.ToSlash(storage.ReplaceExtension(rel, outputExt))
}
