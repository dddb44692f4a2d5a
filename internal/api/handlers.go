package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikarden/internal/pageservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *pageservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pageservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pagePath extracts the source path from the URL (everything after the route
// prefix). Supports encoded slashes (e.g. guide%2Fsetup.md).
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /api/pages.
//
//	@Summary		List the pages of the last successful build
//	@Tags			pages
//	@Produce		json
//	@Success		200		{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.ListPages(r.Context())
	if err != nil {
		slog.Error("list pages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: pages, Total: len(pages)})
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a page with its links and backlinks
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Source path"
//	@Success		200		{object}	PageDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{path} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	page, err := h.svc.GetPage(r.Context(), path)
	if err != nil {
		writeLookupError(w, "get page", path, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetSource handles GET /api/source/*.
//
//	@Summary		Get the current markup of a page
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Source path"
//	@Success		200		{object}	Source
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/source/{path} [get]
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	src, err := h.svc.ReadSource(r.Context(), path)
	if err != nil {
		writeLookupError(w, "read source", path, err)
		return
	}
	w.Header().Set("ETag", `"`+src.Checksum+`"`)
	writeJSON(w, http.StatusOK, src)
}

// Search handles GET /api/search.
//
//	@Summary		Search page titles and text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// LastBuild handles GET /api/builds/last.
//
//	@Summary		Get the most recent build
//	@Tags			builds
//	@Produce		json
//	@Success		200	{object}	BuildResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/builds/last [get]
func (h *Handler) LastBuild(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.LastBuild(r.Context())
	if err != nil {
		writeLookupError(w, "last build", "", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
