package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

func init() {
	Register("mysql", func() Adapter { return NewMySQLAdapter() })
}

// MySQLAdapter implements the Adapter interface for MySQL and MariaDB.
type MySQLAdapter struct {
	db     *sql.DB
	config Config
}

// NewMySQLAdapter creates a new MySQL adapter instance.
func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{}
}

// buildMySQLDSN assembles a driver DSN from the adapter config.
func buildMySQLDSN(cfg Config) string {
	dc := mysql.NewConfig()
	dc.User = cfg.Username
	dc.Passwd = cfg.Password
	dc.DBName = cfg.Database
	if cfg.Socket != "" {
		dc.Net = "unix"
		dc.Addr = cfg.Socket
	} else {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		dc.Net = "tcp"
		dc.Addr = fmt.Sprintf("%s:%d", host, port)
	}
	dc.ParseTime = true
	if len(cfg.Options) > 0 {
		dc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			dc.Params[k] = v
		}
	}
	return dc.FormatDSN()
}

// Connect establishes a connection to the server.
func (a *MySQLAdapter) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("mysql", buildMySQLDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql server: %w", err)
	}

	a.db = db
	a.config = cfg

	return nil
}

// Close closes the connection.
func (a *MySQLAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *MySQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return nil
}

// Query executes a SQL statement that returns rows.
func (a *MySQLAdapter) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return &Rows{Rows: rows}, nil
}

// QueryStrings runs a query and collects the first column of every row.
func (a *MySQLAdapter) QueryStrings(ctx context.Context, sqlStr string) ([]string, error) {
	rows, err := a.Query(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	scan := make([]any, len(cols))
	var first sql.NullString
	scan[0] = &first
	for i := 1; i < len(scan); i++ {
		scan[i] = new(sql.RawBytes)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, first.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ServerVersion reports the server version string.
func (a *MySQLAdapter) ServerVersion(ctx context.Context) (string, error) {
	return a.queryString(ctx, "SELECT VERSION()")
}

// CurrentUser reports the authenticated account as user@host.
func (a *MySQLAdapter) CurrentUser(ctx context.Context) (string, error) {
	return a.queryString(ctx, "SELECT CURRENT_USER()")
}

func (a *MySQLAdapter) queryString(ctx context.Context, sqlStr string) (string, error) {
	if a.db == nil {
		return "", fmt.Errorf("database connection not established")
	}
	var v string
	if err := a.db.QueryRowContext(ctx, sqlStr).Scan(&v); err != nil {
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	return v, nil
}

// ListTables enumerates tables and views of a database.
func (a *MySQLAdapter) ListTables(ctx context.Context, database string) ([]Table, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := "SHOW FULL TABLES FROM " + Backquote(database)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableColumns describes the columns of a table.
func (a *MySQLAdapter) TableColumns(ctx context.Context, database, table string) ([]Column, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := "SHOW FULL COLUMNS FROM " + Backquote(table) + " FROM " + Backquote(database)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			col       Column
			collation sql.NullString
			nullable  string
			deflt     sql.NullString
			privs     sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &collation, &nullable,
			&col.Key, &deflt, &col.Extra, &privs, &col.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		col.Collation = collation.String
		col.Nullable = nullable == "YES"
		if deflt.Valid {
			v := deflt.String
			col.Default = &v
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", database, table)
	}
	return columns, nil
}

// TableStatus reports engine, row estimate and size for a table. Row counts
// come from SHOW TABLE STATUS and are estimates for InnoDB.
func (a *MySQLAdapter) TableStatus(ctx context.Context, database, table string) (*TableStatus, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := "SHOW TABLE STATUS FROM " + Backquote(database) +
		" LIKE " + QuoteString(EscapeMysqlWildcards(table))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error reading table status: %w", err)
		}
		return nil, fmt.Errorf("table %s.%s not found", database, table)
	}

	// SHOW TABLE STATUS has a wide, version-dependent column set; pick the
	// fields of interest by name.
	values := make([]sql.NullString, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	if err := rows.Scan(scan...); err != nil {
		return nil, fmt.Errorf("failed to scan table status: %w", err)
	}

	status := &TableStatus{}
	for i, name := range cols {
		v := values[i].String
		switch name {
		case "Name":
			status.Name = v
		case "Engine":
			status.Engine = v
		case "Rows":
			_, _ = fmt.Sscanf(v, "%d", &status.Rows)
		case "Data_length":
			_, _ = fmt.Sscanf(v, "%d", &status.DataLength)
		case "Collation":
			status.Collation = v
		case "Comment":
			status.Comment = v
		}
	}
	return status, nil
}

// ShowCreateTable returns the CREATE TABLE statement for a table.
func (a *MySQLAdapter) ShowCreateTable(ctx context.Context, database, table string) (string, error) {
	if a.db == nil {
		return "", fmt.Errorf("database connection not established")
	}

	query := "SHOW CREATE TABLE " + Backquote(database) + "." + Backquote(table)
	var name, create string
	if err := a.db.QueryRowContext(ctx, query).Scan(&name, &create); err != nil {
		return "", fmt.Errorf("failed to read table definition: %w", err)
	}
	return create, nil
}

// DB exposes the underlying handle for packages that stream result sets
// themselves (export, row browsing).
func (a *MySQLAdapter) DB() *sql.DB {
	return a.db
}

// SetDB injects an existing handle. Used by tests with sqlmock.
func (a *MySQLAdapter) SetDB(db *sql.DB) {
	a.db = db
}

// Ensure MySQLAdapter implements Adapter interface
var _ Adapter = (*MySQLAdapter)(nil)
