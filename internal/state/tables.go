package state

import (
	"fmt"
	"time"
)

// TouchRecentTable marks a table as recently used, evicting the least
// recently used past MaxRecentTables for that user.
func (s *SQLiteStore) TouchRecentTable(server int, username string, ref TableRef) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	// Delete-then-insert instead of an upsert: a fresh rowid keeps the
	// recency order total even when touches share a timestamp.
	_, err := s.db.Exec(
		`DELETE FROM recent_tables WHERE server = ? AND username = ? AND db = ? AND table_name = ?`,
		server, username, ref.Database, ref.Table)
	if err != nil {
		return fmt.Errorf("failed to record recent table: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO recent_tables (server, username, db, table_name, used_at)
		 VALUES (?, ?, ?, ?, ?)`,
		server, username, ref.Database, ref.Table, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record recent table: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM recent_tables WHERE server = ? AND username = ?
		 AND (db, table_name) NOT IN (
			SELECT db, table_name FROM recent_tables WHERE server = ? AND username = ?
			ORDER BY used_at DESC, rowid DESC LIMIT ?)`,
		server, username, server, username, MaxRecentTables)
	if err != nil {
		return fmt.Errorf("failed to trim recent tables: %w", err)
	}
	return nil
}

// RecentTables returns recently used tables, most recent first.
func (s *SQLiteStore) RecentTables(server int, username string) ([]TableRef, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT db, table_name FROM recent_tables
		 WHERE server = ? AND username = ? ORDER BY used_at DESC, rowid DESC`,
		server, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTableRefs(rows)
}

// AddFavoriteTable adds a table to the favorites. Adding an existing
// favorite is a no-op.
func (s *SQLiteStore) AddFavoriteTable(server int, username string, ref TableRef) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(
		`INSERT INTO favorite_tables (server, username, db, table_name, added_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(server, username, db, table_name) DO NOTHING`,
		server, username, ref.Database, ref.Table, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavoriteTable removes a table from the favorites.
func (s *SQLiteStore) RemoveFavoriteTable(server int, username string, ref TableRef) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(
		`DELETE FROM favorite_tables WHERE server = ? AND username = ? AND db = ? AND table_name = ?`,
		server, username, ref.Database, ref.Table); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// FavoriteTables returns the favorites in the order they were added.
func (s *SQLiteStore) FavoriteTables(server int, username string) ([]TableRef, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT db, table_name FROM favorite_tables
		 WHERE server = ? AND username = ? ORDER BY added_at ASC, rowid ASC`,
		server, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTableRefs(rows)
}

func scanTableRefs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]TableRef, error) {
	var refs []TableRef
	for rows.Next() {
		var ref TableRef
		if err := rows.Scan(&ref.Database, &ref.Table); err != nil {
			return nil, fmt.Errorf("failed to scan table ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table refs: %w", err)
	}
	return refs, nil
}
