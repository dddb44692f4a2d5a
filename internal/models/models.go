// Package models defines the records shared by the catalog, the HTTP API and
// the MCP server.
package models

import "time"

// Build statuses.
const (
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// Page is one rendered document. Paths are slash-separated and relative to
// the source and output roots.
type Page struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Output   string `json:"output"`
	Checksum string `json:"checksum"`
	Draft    bool   `json:"draft,omitempty"`
	Body     string `json:"body,omitempty"`
	BuildID  string `json:"build_id"`
}

// Link is a resolved interlink from one document to another file.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"` // "page" or "image"
}

// Build summarizes one generator run.
type Build struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"` // published pages; drafts are excluded
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
