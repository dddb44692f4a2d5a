// Package binder resolves interlink placeholders once every document of the
// tree has been indexed and parsed.
package binder

import (
	"fmt"
	"path/filepath"

	"github.com/starford/wikarden/internal/apperr"
	"github.com/starford/wikarden/internal/parser"
	"github.com/starford/wikarden/internal/storage"
)

// Kinds of resolved links.
const (
	KindPage  = "page"
	KindImage = "image"
)

// Resolved is one interlink after binding.
type Resolved struct {
	Name     string
	Kind     string
	Target   string // absolute path of the matched file
	Location string // relative URL written into the document
}

// Binder matches interlink names against file names in the index.
// It only reads the index and may be shared across documents.
type Binder struct {
	markupExt string
	outputExt string

	documents map[string][]string // file name → markup documents
	files     map[string][]string // file name → every indexed file
}

// New prepares a binder over documents (the tree's markup files) and tree.
// Page interlinks {name} match documents named name.markupExt and are
// rewritten to outputExt; image interlinks match any file by full name.
func New(tree *storage.Directory, documents []string, markupExt, outputExt string) *Binder {
	b := &Binder{
		markupExt: markupExt,
		outputExt: outputExt,
		documents: make(map[string][]string, len(documents)),
		files:     make(map[string][]string),
	}
	for _, p := range documents {
		name := filepath.Base(p)
		b.documents[name] = append(b.documents[name], p)
	}
	for _, ext := range tree.Extensions() {
		for _, p := range tree.FindAllByExtension(ext) {
			name := filepath.Base(p)
			b.files[name] = append(b.files[name], p)
		}
	}
	return b
}

// Bind fills in every interlink of doc, which was parsed from path.
// Either every interlink resolves or doc is left untouched.
func (b *Binder) Bind(doc *parser.Document, path string) ([]Resolved, error) {
	links := doc.InterLinks()
	images := doc.Images()
	resolved := make([]Resolved, 0, len(links)+len(images))

	for _, l := range links {
		r, err := b.resolve(path, l.Name, l.Name+"."+b.markupExt, b.documents, KindPage)
		if err != nil {
			return nil, err
		}
		r.Location = storage.ReplaceExtension(r.Location, b.outputExt)
		resolved = append(resolved, r)
	}
	for _, img := range images {
		r, err := b.resolve(path, img.Link.Name, img.Link.Name, b.files, KindImage)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}

	for i, l := range links {
		l.Location = resolved[i].Location
	}
	for i, img := range images {
		loc := resolved[len(links)+i].Location
		img.Link.Location = loc
		img.Src = loc
	}
	return resolved, nil
}

func (b *Binder) resolve(from, name, fileName string, candidates map[string][]string, kind string) (Resolved, error) {
	matches := candidates[fileName]
	if len(matches) != 1 {
		return Resolved{}, &apperr.BindError{Document: from, Name: name, Matches: matches}
	}
	rel, ok := storage.Relativize(from, matches[0])
	if !ok {
		return Resolved{}, fmt.Errorf("binder: relativize %s to %s", from, matches[0])
	}
	return Resolved{
		Name:     name,
		Kind:     kind,
		Target:   matches[0],
		Location: filepath.ToSlash(rel),
	}, nil
}
