package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/starford/wikarden/internal/parser"
	"github.com/starford/wikarden/internal/storage"
)

//go:embed templates/page.html
var templates embed.FS

// Page is the data handed to the page template.
type Page struct {
	Title       string
	TitleHTML   template.HTML
	Body        template.HTML
	Breadcrumbs []Crumb
	Navigation  []Crumb
	LiveReload  bool
}

// Crumb is one navigation entry. Href is empty when there is nothing to link.
type Crumb struct {
	Name    string
	Href    string
	Current bool
}

// Options configures a Renderer.
type Options struct {
	MarkupExt  string
	OutputExt  string
	LiveReload bool
}

// Renderer wraps document HTML in page chrome.
type Renderer struct {
	tmpl *template.Template
	opts Options
}

// New parses the page template at templatePath, or the built-in one when
// templatePath is empty.
func New(templatePath string, opts Options) (*Renderer, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.ParseFS(templates, "templates/page.html")
	} else {
		var data []byte
		data, err = os.ReadFile(templatePath)
		if err == nil {
			tmpl, err = template.New(filepath.Base(templatePath)).Parse(string(data))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render: load template: %w", err)
	}
	return &Renderer{tmpl: tmpl, opts: opts}, nil
}

// Prepare assembles the page data for the document at path inside tree.
func (r *Renderer) Prepare(tree *storage.Directory, path string, doc *parser.Document) Page {
	heading, blocks := SplitTitle(doc.Blocks)

	p := Page{
		Body:        template.HTML(Blocks(blocks)),
		Breadcrumbs: Breadcrumbs(tree, path, r.opts.MarkupExt, r.opts.OutputExt),
		Navigation:  Navigation(tree, path, r.opts.MarkupExt, r.opts.OutputExt),
		LiveReload:  r.opts.LiveReload,
	}
	switch {
	case doc.Meta.Title != "":
		p.Title = doc.Meta.Title
		p.TitleHTML = template.HTML(textEscaper.Replace(doc.Meta.Title))
	case heading != nil:
		p.Title = PlainText(heading)
		p.TitleHTML = template.HTML(Inlines(heading))
	default:
		p.Title = stem(path)
	}
	return p
}

// Execute writes the page to w.
func (r *Renderer) Execute(w io.Writer, p Page) error {
	if err := r.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render: execute template: %w", err)
	}
	return nil
}

func stem(path string) string {
	return storage.ReplaceExtension(filepath.Base(path), "")
}
