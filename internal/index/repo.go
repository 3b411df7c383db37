package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
	Snippet  string `json:"snippet"`
}

// UpsertEntry inserts or replaces a mirrored entry and its FTS row within a
// transaction. Sequence is the conflict key so a re-committed sequence (only
// possible after manual history surgery) replaces the old row.
func (db *DB) UpsertEntry(e models.Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO entries (sequence, filename, short_hash, summary, date, previous, body, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sequence) DO UPDATE SET
			filename   = excluded.filename,
			short_hash = excluded.short_hash,
			summary    = excluded.summary,
			date       = excluded.date,
			previous   = excluded.previous,
			body       = excluded.body,
			indexed_at = excluded.indexed_at
	`, e.Sequence, e.Filename, e.ShortHash, e.Summary, e.Date, e.Previous, e.Body, e.IndexedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, e.Filename, e.Summary, e.Body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteEntry removes a mirrored entry and its FTS row.
func (db *DB) DeleteEntry(filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, filename)
	_, _ = tx.Exec(`DELETE FROM entries WHERE filename = ?`, filename)

	return tx.Commit()
}

// GetEntry returns one mirrored entry by filename.
func (db *DB) GetEntry(filename string) (*models.Entry, error) {
	var e models.Entry
	err := db.conn.QueryRow(`
		SELECT sequence, filename, short_hash, summary, date, previous, body, indexed_at
		FROM entries
		WHERE filename = ?
	`, filename).Scan(&e.Sequence, &e.Filename, &e.ShortHash, &e.Summary, &e.Date, &e.Previous, &e.Body, &e.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: entry %s: %w", filename, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get entry: %w", err)
	}
	return &e, nil
}

// ListEntries returns a page of mirrored entries, newest first, along with
// the total count.
func (db *DB) ListEntries(limit, offset int) ([]models.EntryMetadata, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count entries: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT sequence, filename, summary, date
		FROM entries
		ORDER BY sequence DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list entries: %w", err)
	}
	defer rows.Close()

	var out []models.EntryMetadata
	for rows.Next() {
		var m models.EntryMetadata
		if err := rows.Scan(&m.Sequence, &m.Filename, &m.Summary, &m.Date); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Count returns the number of mirrored entries.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// AllFilenames returns every mirrored entry filename. Entry files are
// content-addressed, so the filename set alone is enough to diff the mirror
// against disk.
func (db *DB) AllFilenames() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT filename FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("index: all filenames: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out[f] = struct{}{}
	}
	return out, rows.Err()
}
