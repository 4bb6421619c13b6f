package export

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

func init() {
	Register(&sqlExporter{})
}

// insertBatchSize is the number of rows per extended INSERT.
const insertBatchSize = 100

// sqlExporter produces a dump that can be replayed with the mysql client:
// DROP + CREATE per table followed by extended INSERTs.
type sqlExporter struct{}

func (e *sqlExporter) Name() string        { return "sql" }
func (e *sqlExporter) ContentType() string { return "text/plain; charset=utf-8" }

func (e *sqlExporter) Export(ctx context.Context, w io.Writer, a adapter.Adapter, opts Options) error {
	out, err := NewCharsetWriter(w, opts.Charset)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	fmt.Fprintf(out, "-- SQL dump\n-- Database: %s\n-- Generated: %s\n\n",
		adapter.Backquote(opts.Database), time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "SET SQL_MODE = \"NO_AUTO_VALUE_ON_ZERO\";\n")
	fmt.Fprintf(out, "SET FOREIGN_KEY_CHECKS = 0;\n\n")

	tables, err := resolveTables(ctx, a, opts)
	if err != nil {
		return err
	}

	for _, table := range tables {
		if err := e.exportTable(ctx, out, a, opts.Database, table); err != nil {
			return fmt.Errorf("failed to export table %s: %w", table, err)
		}
	}

	fmt.Fprintf(out, "SET FOREIGN_KEY_CHECKS = 1;\n")
	return nil
}

func (e *sqlExporter) exportTable(ctx context.Context, w io.Writer, a adapter.Adapter, database, table string) error {
	create, err := a.ShowCreateTable(ctx, database, table)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "--\n-- Table structure for table %s\n--\n\n", adapter.Backquote(table))
	fmt.Fprintf(w, "DROP TABLE IF EXISTS %s;\n", adapter.Backquote(table))
	fmt.Fprintf(w, "%s;\n\n", create)

	query := fmt.Sprintf("SELECT * FROM %s.%s",
		adapter.Backquote(database), adapter.Backquote(table))
	rows, err := a.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return err
	}
	numeric := make([]bool, len(types))
	for i, t := range types {
		numeric[i] = isNumericType(t.DatabaseTypeName())
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = adapter.Backquote(c)
	}
	insertHead := fmt.Sprintf("INSERT INTO %s (%s) VALUES\n",
		adapter.Backquote(table), strings.Join(quoted, ", "))

	values := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}

	wroteHeader := false
	inBatch := 0
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return err
		}
		if !wroteHeader {
			fmt.Fprintf(w, "--\n-- Dumping data for table %s\n--\n\n", adapter.Backquote(table))
			wroteHeader = true
		}
		switch {
		case inBatch == 0:
			fmt.Fprint(w, insertHead)
		case inBatch > 0:
			fmt.Fprint(w, ",\n")
		}
		fmt.Fprintf(w, "(%s)", formatRow(values, numeric))
		inBatch++
		if inBatch == insertBatchSize {
			fmt.Fprint(w, ";\n")
			inBatch = 0
		}
	}
	if inBatch > 0 {
		fmt.Fprint(w, ";\n")
	}
	if wroteHeader {
		fmt.Fprint(w, "\n")
	}
	return rows.Err()
}

// formatRow renders one VALUES tuple. NULLs stay bare, numeric columns go
// unquoted, everything else is escaped as a string literal.
func formatRow(values []sql.RawBytes, numeric []bool) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch {
		case v == nil:
			parts[i] = "NULL"
		case numeric[i]:
			parts[i] = string(v)
		default:
			parts[i] = adapter.QuoteString(string(v))
		}
	}
	return strings.Join(parts, ", ")
}

func isNumericType(name string) bool {
	switch strings.ToUpper(name) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "BIT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		return true
	}
	return false
}
