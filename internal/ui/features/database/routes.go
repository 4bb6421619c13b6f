// Package database provides the database browser handlers.
package database

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/state"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// SetupRoutes registers the database browser routes.
func SetupRoutes(router chi.Router, settings *common.Settings, store state.Store, logger *slog.Logger) {
	handlers := NewHandlers(settings, store, logger)

	router.Route("/api/db/{db}", func(r chi.Router) {
		r.Get("/tables", handlers.Tables)
		r.Get("/tables/{table}", handlers.TableMeta)
		r.Get("/tables/{table}/rows", handlers.TableRows)
	})
	router.Post("/api/query", handlers.Query)
}
