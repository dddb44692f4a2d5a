package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/wikarden/internal/apperr"
	"github.com/starford/wikarden/internal/models"
)

// ReplaceBuild records a successful build and swaps the page and link tables
// for its contents within a single transaction.
func (db *DB) ReplaceBuild(b models.Build, pages []models.Page, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertBuild(tx, b); err != nil {
		return err
	}

	if err := ftsClear(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pages`); err != nil {
		return fmt.Errorf("index: clear pages: %w", err)
	}

	if len(pages) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO pages (path, title, output, checksum, draft, body, build_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare page insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range pages {
			if _, err := stmt.Exec(p.Path, p.Title, p.Output, p.Checksum, p.Draft, p.Body, b.ID); err != nil {
				return fmt.Errorf("index: insert page %s: %w", p.Path, err)
			}
			if err := ftsInsert(tx, p.Path, p.Title, p.Body); err != nil {
				return err
			}
		}
	}

	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, kind) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(l.Source, l.Target, l.Kind); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// RecordFailedBuild stores a failed build. The pages of the last good build
// stay in place.
func (db *DB) RecordFailedBuild(b models.Build) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertBuild(tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBuild(tx *sql.Tx, b models.Build) error {
	_, err := tx.Exec(`
		INSERT INTO builds (id, started_at, finished_at, pages, status, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.StartedAt.UTC(), b.FinishedAt.UTC(), b.Pages, b.Status, b.Error)
	if err != nil {
		return fmt.Errorf("index: insert build: %w", err)
	}
	return nil
}

// ListPages returns every page of the current build ordered by path.
func (db *DB) ListPages() ([]models.Page, error) {
	rows, err := db.conn.Query(`
		SELECT path, title, output, checksum, draft, build_id
		FROM pages
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	var out []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.Path, &p.Title, &p.Output, &p.Checksum, &p.Draft, &p.BuildID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPage returns one page including its searchable body.
func (db *DB) GetPage(path string) (*models.Page, error) {
	var p models.Page
	err := db.conn.QueryRow(`
		SELECT path, title, output, checksum, draft, body, build_id
		FROM pages WHERE path = ?
	`, path).Scan(&p.Path, &p.Title, &p.Output, &p.Checksum, &p.Draft, &p.Body, &p.BuildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: page %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &p, nil
}

// Backlinks returns the documents that link to target, ordered by path.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Links returns the outgoing links of source.
func (db *DB) Links(source string) ([]models.Link, error) {
	rows, err := db.conn.Query(`SELECT source, target, kind FROM links WHERE source = ? ORDER BY target`, source)
	if err != nil {
		return nil, fmt.Errorf("index: links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target, &l.Kind); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LastBuild returns the most recently finished build of any status.
func (db *DB) LastBuild() (*models.Build, error) {
	var b models.Build
	err := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, pages, status, error
		FROM builds
		ORDER BY finished_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Pages, &b.Status, &b.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: last build: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: last build: %w", err)
	}
	return &b, nil
}
