// Package history serves query history and recent/favorite tables.
package history

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/MysticExotic/phpmyadmin/internal/state"
)

// SetupRoutes registers the history routes.
func SetupRoutes(router chi.Router, store state.Store, logger *slog.Logger) {
	handlers := NewHandlers(store, logger)

	router.Route("/api/history", func(r chi.Router) {
		r.Get("/", handlers.List)
		r.Delete("/", handlers.Clear)
	})
	router.Get("/api/recent", handlers.Recent)
	router.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", handlers.Favorites)
		r.Post("/", handlers.AddFavorite)
		r.Delete("/", handlers.RemoveFavorite)
	})
}
