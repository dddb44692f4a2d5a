// Package parser compiles wikarden markup into a tree of blocks and inlines.
//
// Parsing runs in two passes. The first splits lines into blocks and collects
// the document's [name]: url reference definitions; the second resolves
// emphasis, code spans and link syntax inside each block. Interlinks are left
// with an empty Location for the binder to fill in once the whole tree is known.
package parser

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/wikarden/internal/apperr"
)

// Meta is the optional YAML front matter of a document.
type Meta struct {
	Title string `yaml:"title"`
	Draft bool   `yaml:"draft"`
}

// Document is a parsed markup file.
type Document struct {
	Meta   Meta
	Blocks []Block
}

var yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Parse compiles raw markup. Front matter, when present, must open the file.
func Parse(data []byte) (*Document, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta, yamlFrontMatter)
	if err != nil {
		return nil, fmt.Errorf("parser: front matter: %w", err)
	}

	blocks, refs, err := segment(string(body))
	if err != nil {
		return nil, err
	}
	if err := resolve(blocks, refs); err != nil {
		return nil, err
	}
	return &Document{Meta: meta, Blocks: blocks}, nil
}

// resolve is the second pass. refs is discarded afterwards.
func resolve(blocks []Block, refs map[string]string) error {
	for _, b := range blocks {
		switch b := b.(type) {
		case *Header:
			b.Content = resolveInlines(b.Content, refs)
		case *Paragraph:
			b.Content = resolveInlines(b.Content, refs)
		case *Image:
			if err := resolveImage(b, refs); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveImage classifies the raw source. Leading plain text, such as an
// indent or a word before the link, is ignored; the element after it must be
// a link. Anything following that link is dropped.
func resolveImage(img *Image, refs map[string]string) error {
	links := classify(img.Src, refs)
	if len(links) > 0 {
		if _, ok := links[0].(Text); ok {
			links = links[1:]
		}
	}
	if len(links) == 0 {
		return fmt.Errorf("parser: %w: %q", apperr.ErrMalformedImage, img.Src)
	}
	switch l := links[0].(type) {
	case AbsoluteLink:
		img.Src = l.Location
	case ReferenceLink:
		img.Src = l.Location
	case *InterLink:
		img.Src = ""
		img.Link = l
	default:
		return fmt.Errorf("parser: %w: %q", apperr.ErrMalformedImage, img.Src)
	}
	return nil
}
