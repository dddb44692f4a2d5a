// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the built site to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wikarden/internal/pageservice"
	"github.com/starford/wikarden/internal/parser"
	"github.com/starford/wikarden/internal/render"
	"github.com/starford/wikarden/internal/site"
)

const dialectURI = "wikarden://markup-dialect"

// Builder runs a site build.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Server wraps the MCP server with wikarden tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *pageservice.Service
	builder Builder
}

// New creates a new MCP server with all tools registered. builder may be nil,
// in which case the build_site tool is not offered.
func New(svc *pageservice.Service, builder Builder, version string) *Server {
	s := &Server{svc: svc, builder: builder}

	s.mcp = server.NewMCPServer(
		"Wikarden",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the last build, optionally limited to a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix (empty for all)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search page titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the markup source of a page."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Source path of the page (e.g. guide/setup.md)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page or file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Source path of the link target")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_markup_dialect",
		mcp.WithDescription("Returns the wikarden markup dialect. "+
			"Call this before writing documents to ensure they build."),
	), s.getMarkupDialect)

	s.mcp.AddTool(mcp.NewTool("preview_markup",
		mcp.WithDescription("Parse markup and return the HTML body it renders to. "+
			"Interlinks are not resolved."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markup to render")),
	), s.previewMarkup)

	if builder != nil {
		s.mcp.AddTool(mcp.NewTool("build_site",
			mcp.WithDescription("Rebuild the whole site and report the result."),
		), s.buildSite)
	}

	s.mcp.AddResource(
		mcp.NewResource(dialectURI, "Markup Dialect",
			mcp.WithResourceDescription("The markup accepted by the wikarden generator."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDialectResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := strings.Trim(req.GetString("folder", ""), "/")

	pages, err := s.svc.ListPages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, p := range pages {
		if folder != "" && !strings.HasPrefix(p.Path, folder+"/") {
			continue
		}
		line := p.Path
		if p.Title != "" {
			line += "\t" + p.Title
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := s.svc.ReadSource(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(src.Content), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getMarkupDialect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupDialect), nil
}

func (s *Server) previewMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.Blocks(doc.Blocks)), nil
}

func (s *Server) buildSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.builder.Build(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("build %s: %d pages, %d drafts, %d assets, %d links in %s",
		report.BuildID, report.Pages, report.Drafts, report.Assets, report.Links, report.Duration)), nil
}

func (s *Server) readDialectResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      dialectURI,
			MIMEType: "text/markdown",
			Text:     MarkupDialect,
		},
	}, nil
}
