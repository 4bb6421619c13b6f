// Package navigation serves the navigation tree data.
package navigation

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// SetupRoutes registers the navigation tree routes.
func SetupRoutes(router chi.Router, settings *common.Settings, logger *slog.Logger) {
	handlers := NewHandlers(settings, logger)

	router.Route("/api/navigation", func(r chi.Router) {
		r.Get("/databases", handlers.Databases)
	})
}
