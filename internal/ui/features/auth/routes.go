// Package auth provides the login, logout, and session handlers.
package auth

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	pmaauth "github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// SetupRoutes registers the authentication routes. These are the only
// routes reachable without credentials.
func SetupRoutes(router chi.Router, settings *common.Settings, cookieAuth *pmaauth.CookieAuth, logger *slog.Logger) {
	handlers := NewHandlers(settings, cookieAuth, logger)

	router.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login)
		r.Post("/logout", handlers.Logout)
		r.Get("/session", handlers.Session)
		r.Get("/servers", handlers.Servers)
	})
}
