// Package pageservice answers read queries about the last build by combining
// the catalog with the source tree.
package pageservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/wikarden/internal/apperr"
	"github.com/starford/wikarden/internal/checksum"
	"github.com/starford/wikarden/internal/index"
	"github.com/starford/wikarden/internal/models"
	"github.com/starford/wikarden/internal/storage"
)

// PageDetail is a page with its link neighbourhood.
type PageDetail struct {
	models.Page
	Links     []models.Link `json:"links"`
	Backlinks []string      `json:"backlinks"`
}

// Source is the raw markup of a page.
type Source struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
	Stale    bool   `json:"stale"` // file changed since the last build
}

// Service coordinates catalog and source storage reads.
type Service struct {
	store storage.Provider
	db    index.Catalog
}

// NewService creates a new page service. store is rooted at the source tree.
func NewService(store storage.Provider, db index.Catalog) *Service {
	return &Service{store: store, db: db}
}

// ListPages returns every page of the last successful build.
func (s *Service) ListPages(_ context.Context) ([]models.Page, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(pages), nil
}

// GetPage returns a page enriched with outgoing links and backlinks.
func (s *Service) GetPage(_ context.Context, path string) (*PageDetail, error) {
	p, err := s.db.GetPage(path)
	if err != nil {
		return nil, err
	}
	links, err := s.db.Links(path)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &PageDetail{
		Page:      *p,
		Links:     nonNilSlice(links),
		Backlinks: nonNilSlice(bl),
	}, nil
}

// ReadSource returns the markup of a catalogued page as it is on disk now.
func (s *Service) ReadSource(_ context.Context, path string) (*Source, error) {
	p, err := s.db.GetPage(path)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("source %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	cs := checksum.Sum(data)
	return &Source{
		Path:     p.Path,
		Content:  string(data),
		Checksum: cs,
		Stale:    cs != p.Checksum,
	}, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Backlinks returns all documents that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// LastBuild returns the most recent build, successful or not.
func (s *Service) LastBuild(_ context.Context) (*models.Build, error) {
	return s.db.LastBuild()
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
