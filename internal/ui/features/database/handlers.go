package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/state"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// maxQueryRows caps the rows returned by ad-hoc queries.
const maxQueryRows = 500

// defaultPageSize is the row browser page size.
const defaultPageSize = 25

// Handlers provides HTTP handlers for the database browser.
type Handlers struct {
	settings *common.Settings
	store    state.Store
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(settings *common.Settings, store state.Store, logger *slog.Logger) *Handlers {
	return &Handlers{settings: settings, store: store, logger: logger}
}

// Tables lists tables and views of a database.
func (h *Handlers) Tables(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	db := chi.URLParam(r, "db")

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	tables, err := conn.ListTables(r.Context(), db)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.WriteJSON(w, http.StatusOK, tables)
}

// TableMetaResponse describes one table.
type TableMetaResponse struct {
	Database string               `json:"database"`
	Table    string               `json:"table"`
	Columns  []adapter.Column     `json:"columns"`
	Status   *adapter.TableStatus `json:"status"`
}

// TableMeta returns columns and status of a table, and records it as
// recently used.
func (h *Handlers) TableMeta(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	db := chi.URLParam(r, "db")
	table := chi.URLParam(r, "table")

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	columns, err := conn.TableColumns(r.Context(), db, table)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status, err := conn.TableStatus(r.Context(), db, table)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.store.TouchRecentTable(ra.ServerID, ra.Creds.Username,
		state.TableRef{Database: db, Table: table}); err != nil {
		h.logger.Warn("failed to record recent table", "error", err)
	}

	common.WriteJSON(w, http.StatusOK, TableMetaResponse{
		Database: db,
		Table:    table,
		Columns:  columns,
		Status:   status,
	})
}

// RowsResponse is one page of table rows.
type RowsResponse struct {
	Columns []string          `json:"columns"`
	Rows    [][]*string       `json:"rows"`
	Pos     int               `json:"pos"`
	Limit   int               `json:"limit"`
	Ref     map[string]string `json:"ref"`
}

// TableRows returns one page of rows from a table.
func (h *Handlers) TableRows(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	db := chi.URLParam(r, "db")
	table := chi.URLParam(r, "table")

	pos, _ := strconv.Atoi(r.URL.Query().Get("pos"))
	if pos < 0 {
		pos = 0
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxQueryRows {
		limit = defaultPageSize
	}

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d, %d",
		adapter.Backquote(db), adapter.Backquote(table), pos, limit)
	columns, rows, err := collectRows(conn, r, query, limit)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	common.WriteJSON(w, http.StatusOK, RowsResponse{
		Columns: columns,
		Rows:    rows,
		Pos:     pos,
		Limit:   limit,
		Ref:     map[string]string{"db": db, "table": table},
	})
}

type queryRequest struct {
	Database string `json:"db"`
	SQL      string `json:"sql"`
}

// QueryResponse carries an ad-hoc query result.
type QueryResponse struct {
	Columns   []string    `json:"columns"`
	Rows      [][]*string `json:"rows"`
	Truncated bool        `json:"truncated"`
}

// Query executes an ad-hoc SQL statement and records it in the history.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SQL == "" {
		common.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	if req.Database != "" {
		if err := conn.Exec(r.Context(), "USE "+adapter.Backquote(req.Database)); err != nil {
			common.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if _, err := h.store.AddHistory(ra.ServerID, ra.Creds.Username, req.Database, req.SQL); err != nil {
		h.logger.Warn("failed to record history", "error", err)
	}

	columns, rows, err := collectRows(conn, r, req.SQL, maxQueryRows)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	common.WriteJSON(w, http.StatusOK, QueryResponse{
		Columns:   columns,
		Rows:      rows,
		Truncated: len(rows) == maxQueryRows,
	})
}

// collectRows runs a query and materializes up to limit rows as nullable
// strings.
func collectRows(conn adapter.Adapter, r *http.Request, query string, limit int) ([]string, [][]*string, error) {
	rows, err := conn.Query(r.Context(), query)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := make([][]*string, 0)
	values := make([]sql.RawBytes, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() && len(out) < limit {
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		row := make([]*string, len(columns))
		for i, v := range values {
			if v != nil {
				s := string(v)
				row[i] = &s
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}
