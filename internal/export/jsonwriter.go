package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

func init() {
	Register(&jsonExporter{})
}

// jsonExporter writes the selected tables as one JSON document: the
// database name plus an array of tables, each with its rows as objects.
type jsonExporter struct{}

func (e *jsonExporter) Name() string        { return "json" }
func (e *jsonExporter) ContentType() string { return "application/json; charset=utf-8" }

type jsonDump struct {
	Database string      `json:"database"`
	Tables   []jsonTable `json:"tables"`
}

type jsonTable struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}

func (e *jsonExporter) Export(ctx context.Context, w io.Writer, a adapter.Adapter, opts Options) error {
	tables, err := resolveTables(ctx, a, opts)
	if err != nil {
		return err
	}

	out, err := NewCharsetWriter(w, opts.Charset)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	dump := jsonDump{Database: opts.Database, Tables: make([]jsonTable, 0, len(tables))}
	for _, table := range tables {
		rows, err := e.tableRows(ctx, a, opts.Database, table)
		if err != nil {
			return fmt.Errorf("failed to export table %s: %w", table, err)
		}
		dump.Tables = append(dump.Tables, jsonTable{Name: table, Rows: rows})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

func (e *jsonExporter) tableRows(ctx context.Context, a adapter.Adapter, database, table string) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s",
		adapter.Backquote(database), adapter.Backquote(table))
	rows, err := a.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if values[i] == nil {
				row[col] = nil
			} else {
				row[col] = string(values[i])
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
