package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wikarden/internal/pageservice"
	"github.com/starford/wikarden/internal/site"
	"github.com/starford/wikarden/internal/storage"
	"github.com/starford/wikarden/internal/testutil"
)

// testServer builds a small site into a fresh catalog and serves it.
func testServer(t *testing.T) *Server {
	t.Helper()

	src := testutil.WriteTree(t, map[string]string{
		"index.md":       "# Home\n\nStart at {setup}.",
		"guide/setup.md": "# Setup\n\nInstall the *uniqueword* tool.",
		"guide/faq.md":   "# FAQ\n\nSee {setup}.",
	})
	db := testutil.TestDB(t)
	gen, err := site.New(src, filepath.Join(t.TempDir(), "out"),
		site.WithRecorder(db),
		site.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	store, err := storage.NewFS(src)
	if err != nil {
		t.Fatal(err)
	}
	return New(pageservice.NewService(store, db), gen, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "search_pages":
		result, err = srv.searchPages(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_markup_dialect":
		result, err = srv.getMarkupDialect(ctx, req)
	case "preview_markup":
		result, err = srv.previewMarkup(ctx, req)
	case "build_site":
		result, err = srv.buildSite(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPages(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "list_pages", map[string]interface{}{}))
	if got := strings.Count(text, "\n") + 1; got != 3 {
		t.Errorf("list has %d lines, want 3: %q", got, text)
	}
	if !strings.Contains(text, "guide/setup.md\tSetup") {
		t.Errorf("list missing setup title: %q", text)
	}

	text = resultText(callTool(t, srv, "list_pages", map[string]interface{}{"folder": "guide/"}))
	if strings.Contains(text, "index.md") || !strings.Contains(text, "guide/faq.md") {
		t.Errorf("folder filter = %q", text)
	}
}

func TestReadPage(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_page", map[string]interface{}{"path": "index.md"})
	if text := resultText(r); text != "# Home\n\nStart at {setup}." {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "read_page", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
}

func TestSearchPages(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "search_pages", map[string]interface{}{"query": "uniqueword"}))
	if !strings.Contains(text, `"path": "guide/setup.md"`) {
		t.Errorf("search result = %q", text)
	}

	r := callTool(t, srv, "search_pages", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "guide/setup.md"}))
	if text != "guide/faq.md\nindex.md" {
		t.Errorf("backlinks = %q", text)
	}

	text = resultText(callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "index.md"}))
	if text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestPreviewMarkup(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "preview_markup", map[string]interface{}{"content": "## Hi\n\n**bold**"}))
	if text != "<h2>Hi</h2>\n<p><b>bold</b></p>\n" {
		t.Errorf("preview = %q", text)
	}
}

func TestBuildSiteAndDialect(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "build_site", map[string]interface{}{}))
	if !strings.Contains(text, "3 pages") {
		t.Errorf("build result = %q", text)
	}

	text = resultText(callTool(t, srv, "get_markup_dialect", map[string]interface{}{}))
	if !strings.Contains(text, "{name}") {
		t.Error("dialect does not describe interlinks")
	}

	contents, err := srv.readDialectResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != dialectURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
