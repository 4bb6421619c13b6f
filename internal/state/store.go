// Package state persists per-user working state across requests: SQL query
// history and recent/favorite tables, keyed by server and account.
package state

import "time"

// Caps on per-user state. Oldest entries are evicted past these.
const (
	MaxHistoryEntries = 25
	MaxRecentTables   = 10
)

// HistoryEntry is one remembered SQL statement.
type HistoryEntry struct {
	ID        string
	Server    int
	Username  string
	Database  string
	SQL       string
	CreatedAt time.Time
}

// TableRef names a table within a database.
type TableRef struct {
	Database string `json:"db"`
	Table    string `json:"table"`
}

// Store is the persistence interface used by the history feature and the
// REPL.
type Store interface {
	// AddHistory records a statement, evicting the oldest entries past
	// MaxHistoryEntries per user.
	AddHistory(server int, username, database, sqlText string) (*HistoryEntry, error)

	// ListHistory returns the newest entries first.
	ListHistory(server int, username string, limit int) ([]*HistoryEntry, error)

	// ClearHistory drops all entries of one user.
	ClearHistory(server int, username string) error

	// TouchRecentTable marks a table as recently used, evicting the
	// least recently used past MaxRecentTables per user.
	TouchRecentTable(server int, username string, ref TableRef) error

	// RecentTables returns recently used tables, most recent first.
	RecentTables(server int, username string) ([]TableRef, error)

	// AddFavoriteTable and RemoveFavoriteTable maintain the favorites.
	AddFavoriteTable(server int, username string, ref TableRef) error
	RemoveFavoriteTable(server int, username string, ref TableRef) error

	// FavoriteTables returns the favorites in the order they were added.
	FavoriteTables(server int, username string) ([]TableRef, error)

	// Close releases the underlying database.
	Close() error
}
