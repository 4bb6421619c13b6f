package state

import (
	"fmt"
	"time"
)

// AddHistory records a statement, evicting the oldest entries past
// MaxHistoryEntries for that user.
func (s *SQLiteStore) AddHistory(server int, username, database, sqlText string) (*HistoryEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	entry := &HistoryEntry{
		ID:        generateID(),
		Server:    server,
		Username:  username,
		Database:  database,
		SQL:       sqlText,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO query_history (id, server, username, db, sql_query, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Server, entry.Username, entry.Database, entry.SQL, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	// rowid breaks created_at ties so entries inserted within the same
	// second evict oldest-first.
	_, err = s.db.Exec(
		`DELETE FROM query_history WHERE server = ? AND username = ? AND id NOT IN (
			SELECT id FROM query_history WHERE server = ? AND username = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?)`,
		server, username, server, username, MaxHistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to trim history: %w", err)
	}

	return entry, nil
}

// ListHistory returns the newest entries first.
func (s *SQLiteStore) ListHistory(server int, username string, limit int) ([]*HistoryEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 || limit > MaxHistoryEntries {
		limit = MaxHistoryEntries
	}

	rows, err := s.db.Query(
		`SELECT id, server, username, db, sql_query, created_at FROM query_history
		 WHERE server = ? AND username = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		server, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.Server, &e.Username, &e.Database, &e.SQL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

// ClearHistory drops all entries of one user.
func (s *SQLiteStore) ClearHistory(server int, username string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(
		`DELETE FROM query_history WHERE server = ? AND username = ?`,
		server, username); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
