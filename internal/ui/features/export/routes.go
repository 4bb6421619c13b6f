// Package export streams database dumps over HTTP.
package export

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// SetupRoutes registers the export routes.
func SetupRoutes(router chi.Router, settings *common.Settings, logger *slog.Logger) {
	handlers := NewHandlers(settings, logger)

	router.Get("/api/db/{db}/export", handlers.Export)
	router.Get("/api/export/formats", handlers.Formats)
}
