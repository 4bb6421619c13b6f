package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/export"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// Handlers provides HTTP handlers for exporting.
type Handlers struct {
	settings *common.Settings
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(settings *common.Settings, logger *slog.Logger) *Handlers {
	return &Handlers{settings: settings, logger: logger}
}

// Formats lists the registered export formats.
func (h *Handlers) Formats(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, export.List())
}

// Export streams a dump of a database (or selected tables) in the
// requested format.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	db := chi.URLParam(r, "db")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "sql"
	}
	exporter, ok := export.Get(format)
	if !ok {
		common.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown export format %q (available: %v)", format, export.List()))
		return
	}

	opts := export.Options{
		Database: db,
		Charset:  r.URL.Query().Get("charset"),
	}
	if tables := r.URL.Query().Get("tables"); tables != "" {
		opts.Tables = strings.Split(tables, ",")
	}

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", db+"."+format))

	if err := exporter.Export(r.Context(), w, conn, opts); err != nil {
		// Headers are gone at this point; log and truncate the stream.
		h.logger.Error("export failed", "db", db, "format", format, "error", err)
	}
}
