// Package site runs the generator: index the source tree, mirror it into the
// output tree, then parse, bind and render every markup document.
package site

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/wikarden/internal/apperr"
	"github.com/starford/wikarden/internal/binder"
	"github.com/starford/wikarden/internal/checksum"
	"github.com/starford/wikarden/internal/index"
	"github.com/starford/wikarden/internal/models"
	"github.com/starford/wikarden/internal/parser"
	"github.com/starford/wikarden/internal/render"
	"github.com/starford/wikarden/internal/storage"
)

// Report describes a successful build.
type Report struct {
	BuildID    string
	Pages      int // published pages, written or already up to date
	Unchanged  int // pages whose output was already identical
	Drafts     int
	Assets     int
	Links      int
	DraftLinks int // links from published pages to drafts, which are not written
	Duration   time.Duration
}

// Generator builds the output tree from the source tree. Builds are
// serialized; a Generator may be shared between goroutines.
type Generator struct {
	source string
	output string

	markupExt  string
	outputExt  string
	template   string
	liveReload bool

	recorder index.Recorder
	logger   *slog.Logger
	now      func() time.Time

	renderer *render.Renderer
	mu       sync.Mutex
}

// Option configures a Generator.
type Option func(*Generator)

// WithExtensions sets the markup and output extensions, without dots.
func WithExtensions(markup, output string) Option {
	return func(g *Generator) {
		g.markupExt = markup
		g.outputExt = output
	}
}

// WithTemplate replaces the built-in page template.
func WithTemplate(path string) Option {
	return func(g *Generator) {
		g.template = path
	}
}

// WithLiveReload makes rendered pages subscribe to rebuild events.
func WithLiveReload(enabled bool) Option {
	return func(g *Generator) {
		g.liveReload = enabled
	}
}

// WithRecorder stores each build in a catalog.
func WithRecorder(r index.Recorder) Option {
	return func(g *Generator) {
		g.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a generator reading source and writing output.
func New(source, output string, opts ...Option) (*Generator, error) {
	g := &Generator{
		source:    source,
		output:    output,
		markupExt: "md",
		outputExt: "html",
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.markupExt == g.outputExt {
		return nil, fmt.Errorf("site: markup and output extension are both %q", g.markupExt)
	}

	r, err := render.New(g.template, render.Options{
		MarkupExt:  g.markupExt,
		OutputExt:  g.outputExt,
		LiveReload: g.liveReload,
	})
	if err != nil {
		return nil, err
	}
	g.renderer = r
	return g, nil
}

// Source returns the configured source root.
func (g *Generator) Source() string { return g.source }

// Output returns the configured output root.
func (g *Generator) Output() string { return g.output }

// Build runs one full generation. Any error aborts the run; pages are only
// written once every document has parsed and bound.
func (g *Generator) Build(ctx context.Context) (*Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := models.Build{ID: uuid.NewString(), StartedAt: g.now()}
	logger := g.logger.With(slog.String("build_id", b.ID))
	logger.Info("build: started",
		slog.String("source", g.source),
		slog.String("output", g.output))

	res, err := g.run(ctx, b.ID, logger)
	b.FinishedAt = g.now()
	if err != nil {
		b.Status = models.BuildFailed
		b.Error = err.Error()
		logger.Error("build: failed", slog.String("error", err.Error()))
		if g.recorder != nil {
			if rerr := g.recorder.RecordFailedBuild(b); rerr != nil {
				logger.Warn("build: record failure", slog.String("error", rerr.Error()))
			}
		}
		return nil, err
	}

	b.Status = models.BuildSucceeded
	b.Pages = len(res.pages) - res.drafts
	if g.recorder != nil {
		if err := g.recorder.ReplaceBuild(b, res.pages, res.links); err != nil {
			return nil, fmt.Errorf("site: record build: %w", err)
		}
	}

	report := &Report{
		BuildID:   b.ID,
		Pages:      b.Pages,
		Unchanged:  res.unchanged,
		Drafts:     res.drafts,
		Assets:     res.assets,
		Links:      len(res.links),
		DraftLinks: res.draftLinks,
		Duration:   b.FinishedAt.Sub(b.StartedAt),
	}
	logger.Info("build: finished",
		slog.Int("pages", report.Pages),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("drafts", report.Drafts),
		slog.Int("assets", report.Assets),
		slog.Int("links", report.Links),
		slog.Int("draft_links", report.DraftLinks),
		slog.Duration("duration", report.Duration))
	return report, nil
}

type document struct {
	path string // absolute
	rel  string // slash-separated, relative to the source root
	raw  []byte
	doc  *parser.Document
}

type result struct {
	pages      []models.Page
	links      []models.Link
	assets     int
	drafts     int
	unchanged  int
	draftLinks int
}

func (g *Generator) run(ctx context.Context, buildID string, logger *slog.Logger) (*result, error) {
	tree, err := storage.Index(g.source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(g.output, 0o755); err != nil {
		return nil, &apperr.IOError{Op: "mkdir", Path: g.output, Err: err}
	}
	out, err := storage.NewFS(g.output)
	if err != nil {
		return nil, err
	}
	if out.Root() == tree.Base {
		return nil, fmt.Errorf("site: output %s is the source root", out.Root())
	}
	tree = tree.Without(out.Root())

	src, err := storage.NewFS(tree.Base)
	if err != nil {
		return nil, err
	}

	res := &result{}
	err = tree.CloneStructure(out.Root(), func(path, _ string) bool {
		if storage.Extension(path) == g.markupExt {
			return false
		}
		res.assets++
		return true
	})
	if err != nil {
		return nil, err
	}

	paths := tree.FindAllByExtension(g.markupExt)
	docs := make([]*document, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := g.parse(src, tree.Base, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	logger.Debug("build: parsed", slog.Int("documents", len(docs)))

	drafts := make(map[string]bool)
	for _, d := range docs {
		if d.doc.Meta.Draft {
			drafts[d.rel] = true
		}
	}

	b := binder.New(tree, paths, g.markupExt, g.outputExt)
	for _, d := range docs {
		resolved, err := b.Bind(d.doc, d.path)
		if err != nil {
			return nil, fmt.Errorf("site: bind %s: %w", d.rel, err)
		}
		for _, r := range resolved {
			link := models.Link{
				Source: d.rel,
				Target: relSlash(tree.Base, r.Target),
				Kind:   r.Kind,
			}
			if drafts[link.Target] && !drafts[link.Source] {
				res.draftLinks++
				logger.Warn("build: published page links to a draft",
					slog.String("source", link.Source),
					slog.String("target", link.Target))
			}
			res.links = append(res.links, link)
		}
	}

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := g.write(out, tree, d, res, logger)
		if err != nil {
			return nil, err
		}
		page.BuildID = buildID
		res.pages = append(res.pages, page)
	}
	return res, nil
}

func (g *Generator) parse(src *storage.FS, root, path string) (*document, error) {
	raw, err := src.Read(path)
	if err != nil {
		return nil, &apperr.IOError{Op: "read", Path: path, Err: err}
	}
	rel := relSlash(root, path)
	doc, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("site: parse %s: %w", rel, err)
	}
	return &document{path: path, rel: rel, raw: raw, doc: doc}, nil
}

// write renders d and stores it unless it is a draft or the output already
// holds identical content.
func (g *Generator) write(out *storage.FS, tree *storage.Directory, d *document, res *result, logger *slog.Logger) (models.Page, error) {
	data := g.renderer.Prepare(tree, d.path, d.doc)
	page := models.Page{
		Path:     d.rel,
		Title:    data.Title,
		Checksum: checksum.Sum(d.raw),
		Draft:    d.doc.Meta.Draft,
		Body:     render.BodyText(d.doc.Blocks),
	}
	if page.Draft {
		res.drafts++
		logger.Debug("build: skipped draft", slog.String("path", d.rel))
		return page, nil
	}

	dst, err := storage.OutputPath(tree.Base, out.Root(), d.path, g.outputExt)
	if err != nil {
		return page, err
	}
	page.Output = relSlash(out.Root(), dst)

	var buf bytes.Buffer
	if err := g.renderer.Execute(&buf, data); err != nil {
		return page, fmt.Errorf("site: render %s: %w", d.rel, err)
	}
	if sum, err := checksum.File(dst); err == nil && sum == checksum.Sum(buf.Bytes()) {
		res.unchanged++
		return page, nil
	}
	if err := out.Write(dst, buf.Bytes()); err != nil {
		return page, &apperr.IOError{Op: "write", Path: dst, Err: err}
	}
	logger.Debug("build: wrote page", slog.String("path", page.Output))
	return page, nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
