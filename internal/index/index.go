package index

import "github.com/starford/wikarden/internal/models"

// Recorder is what the generator needs to persist a build.
type Recorder interface {
	ReplaceBuild(b models.Build, pages []models.Page, links []models.Link) error
	RecordFailedBuild(b models.Build) error
}

// Catalog is the read and write surface of the build catalog.
// Consumers should depend on this interface rather than on *DB.
type Catalog interface {
	Recorder
	ListPages() ([]models.Page, error)
	GetPage(path string) (*models.Page, error)
	Search(query string, limit int) ([]models.SearchResult, error)
	Backlinks(target string) ([]string, error)
	Links(source string) ([]models.Link, error)
	LastBuild() (*models.Build, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
