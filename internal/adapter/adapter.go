// Package adapter provides database adapter interfaces and implementations
// over the MySQL/MariaDB client protocol.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for connecting to a database server.
type Config struct {
	// Host is the hostname of the server.
	Host string

	// Port is the TCP port, ignored when Socket is set.
	Port int

	// Socket is the path to a unix domain socket.
	Socket string

	// Database is an optional default database.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Options contains additional driver-specific DSN parameters.
	Options map[string]string
}

// Column represents a column in a database table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the full column type (e.g. "int(11)", "varchar(255)").
	Type string

	// Collation of the column, empty for non-character types.
	Collation string

	// Nullable indicates whether the column allows NULL values.
	Nullable bool

	// Key is the index participation ("PRI", "UNI", "MUL" or empty).
	Key string

	// Default is the default value, nil when none.
	Default *string

	// Extra holds attributes such as auto_increment.
	Extra string

	// Comment is the column comment.
	Comment string
}

// Table describes one table-like object in a database.
type Table struct {
	// Name is the table name.
	Name string

	// Type distinguishes base tables from views ("BASE TABLE", "VIEW",
	// "SYSTEM VIEW").
	Type string
}

// TableStatus holds size and row estimates for a table.
type TableStatus struct {
	Name       string
	Engine     string
	Rows       int64
	DataLength int64
	Collation  string
	Comment    string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that database adapters implement. It covers
// connection management, raw SQL execution, and the catalog lookups the
// navigation tree and browse handlers need.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// QueryStrings runs a query and returns the first column of every row.
	QueryStrings(ctx context.Context, sql string) ([]string, error)

	// ServerVersion reports the server version string.
	ServerVersion(ctx context.Context) (string, error)

	// CurrentUser reports the authenticated account as user@host.
	CurrentUser(ctx context.Context) (string, error)

	// ListTables enumerates tables and views of a database.
	ListTables(ctx context.Context, database string) ([]Table, error)

	// TableColumns describes the columns of a table.
	TableColumns(ctx context.Context, database, table string) ([]Column, error)

	// TableStatus reports engine, row estimate and size for a table.
	TableStatus(ctx context.Context, database, table string) (*TableStatus, error)

	// ShowCreateTable returns the CREATE TABLE statement for a table.
	ShowCreateTable(ctx context.Context, database, table string) (string, error)
}
