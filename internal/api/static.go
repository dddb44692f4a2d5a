package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/wikarden/internal/storage"
)

// SiteHandler serves the generated site from the output root. Directory
// requests are answered with the directory's index page.
type SiteHandler struct {
	root      string
	indexName string
}

// NewSiteHandler creates a handler over the output root. outputExt is the
// extension of rendered pages, without dot.
func NewSiteHandler(outputRoot, outputExt string) *SiteHandler {
	return &SiteHandler{root: outputRoot, indexName: "index." + outputExt}
}

// safePath maps a URL path to a file under root, rejecting traversal.
func (h *SiteHandler) safePath(urlPath string) (string, bool) {
	cleaned := path.Clean("/" + urlPath)
	abs := filepath.Join(h.root, filepath.FromSlash(cleaned))
	if !storage.IsWithin(abs, h.root) {
		return "", false
	}
	return abs, true
}

// ServeHTTP handles GET for any path not claimed by the API.
func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.safePath(r.URL.Path)
	if !ok {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		abs = filepath.Join(abs, h.indexName)
		if _, err := os.Stat(abs); err != nil {
			http.NotFound(w, r)
			return
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, abs)
}
