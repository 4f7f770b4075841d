package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/netmpowers/bookwatch/internal/model"
	_ "modernc.org/sqlite"
)

// ErrTermNotFound is returned when a search term is not in the store.
var ErrTermNotFound = errors.New("search term not found")

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// No ON DELETE CASCADE: term deletion cascades explicitly inside
	// RemoveTerm's transaction.
	schema := `
	CREATE TABLE IF NOT EXISTS search_terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS found_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		term_id INTEGER NOT NULL REFERENCES search_terms(id),
		item_index INTEGER NOT NULL,
		subject TEXT NOT NULL,
		poster TEXT NOT NULL,
		grp TEXT NOT NULL,
		age TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_found_items_term ON found_items(term_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// --- Term Methods ---

// AddTerm inserts a search term. Adding a term that already exists is a
// no-op success; uniqueness is enforced by the schema, not the caller.
func (db *DB) AddTerm(text string) error {
	if _, err := db.conn.Exec("INSERT OR IGNORE INTO search_terms (text) VALUES (?)", text); err != nil {
		return fmt.Errorf("add term: %w", err)
	}
	return nil
}

// TermExists reports whether the term is tracked.
func (db *DB) TermExists(text string) (bool, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM search_terms WHERE text = ?", text).Scan(&count); err != nil {
		return false, fmt.Errorf("term exists: %w", err)
	}
	return count > 0, nil
}

// TermID returns the ID for a term, or ErrTermNotFound.
func (db *DB) TermID(text string) (int64, error) {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM search_terms WHERE text = ?", text).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrTermNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("term id: %w", err)
	}
	return id, nil
}

// AllTerms returns every tracked term text in insertion order.
func (db *DB) AllTerms() ([]string, error) {
	rows, err := db.conn.Query("SELECT text FROM search_terms ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("all terms: %w", err)
	}
	defer rows.Close()
	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// RemoveTerm deletes a term and all of its found items in one transaction.
// Returns ErrTermNotFound if the term is not tracked.
func (db *DB) RemoveTerm(text string) error {
	id, err := db.TermID(text)
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("remove term: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM found_items WHERE term_id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("remove term items: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM search_terms WHERE id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("remove term: %w", err)
	}
	return tx.Commit()
}

// --- Item Methods ---

// ItemsFor returns the stored items for a term.
func (db *DB) ItemsFor(termID int64) ([]model.FoundItem, error) {
	rows, err := db.conn.Query(
		"SELECT id, term_id, item_index, subject, poster, grp, age FROM found_items WHERE term_id = ? ORDER BY id",
		termID)
	if err != nil {
		return nil, fmt.Errorf("items for term %d: %w", termID, err)
	}
	defer rows.Close()
	var items []model.FoundItem
	for rows.Next() {
		var it model.FoundItem
		if err := rows.Scan(&it.ID, &it.TermID, &it.Index, &it.Subject, &it.Poster, &it.Group, &it.Age); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItem inserts a listing row for a term unconditionally. De-duplication
// by identity key is the reconciler's job, before calling this.
func (db *DB) AddItem(termID int64, row model.RemoteRow) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO found_items (term_id, item_index, subject, poster, grp, age) VALUES (?, ?, ?, ?, ?, ?)",
		termID, row.Index, row.Subject, row.Poster, row.Group, row.Age)
	if err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}
	return res.LastInsertId()
}

// RemoveItems deletes the listed items belonging to termID in one
// transaction. IDs that no longer exist are silently skipped.
func (db *DB) RemoveItems(termID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("remove items: %w", err)
	}
	stmt, err := tx.Prepare("DELETE FROM found_items WHERE term_id = ? AND id = ?")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("remove items: %w", err)
	}
	defer stmt.Close()
	for _, id := range itemIDs {
		if _, err := stmt.Exec(termID, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("remove item %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// CountItems returns the number of stored items for a term.
func (db *DB) CountItems(termID int64) (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM found_items WHERE term_id = ?", termID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
