package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

func init() {
	Register(&csvExporter{})
}

// csvExporter writes one table as RFC 4180 CSV with a header row. The
// format has no room for table boundaries, so exactly one table must be
// selected.
type csvExporter struct{}

func (e *csvExporter) Name() string        { return "csv" }
func (e *csvExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *csvExporter) Export(ctx context.Context, w io.Writer, a adapter.Adapter, opts Options) error {
	tables, err := resolveTables(ctx, a, opts)
	if err != nil {
		return err
	}
	if len(tables) != 1 {
		return fmt.Errorf("csv export requires exactly one table, got %d", len(tables))
	}

	out, err := NewCharsetWriter(w, opts.Charset)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	query := fmt.Sprintf("SELECT * FROM %s.%s",
		adapter.Backquote(opts.Database), adapter.Backquote(tables[0]))
	rows, err := a.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(cols); err != nil {
		return err
	}

	values := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	record := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return err
		}
		for i, v := range values {
			if v == nil {
				record[i] = "NULL"
			} else {
				record[i] = string(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
