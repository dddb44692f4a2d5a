package api

import (
	"github.com/starford/wikarden/internal/models"
	"github.com/starford/wikarden/internal/pageservice"
)

// PageDetail is the full page response type (aliased from the service layer).
type PageDetail = pageservice.PageDetail

// Source is the raw markup response type (aliased from the service layer).
type Source = pageservice.Source

// PageListResponse wraps page listings.
type PageListResponse struct {
	Pages []models.Page `json:"pages" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
}

// BuildResponse is the last build summary.
type BuildResponse = models.Build
