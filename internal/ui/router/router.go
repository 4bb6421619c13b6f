// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	pmaauth "github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/state"
	authFeature "github.com/MysticExotic/phpmyadmin/internal/ui/features/auth"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
	databaseFeature "github.com/MysticExotic/phpmyadmin/internal/ui/features/database"
	exportFeature "github.com/MysticExotic/phpmyadmin/internal/ui/features/export"
	historyFeature "github.com/MysticExotic/phpmyadmin/internal/ui/features/history"
	navigationFeature "github.com/MysticExotic/phpmyadmin/internal/ui/features/navigation"
)

// SetupRoutes configures all routes for the UI server. Everything except
// the auth feature sits behind the cookie authentication middleware.
func SetupRoutes(
	router chi.Router,
	settings *common.Settings,
	cookieAuth *pmaauth.CookieAuth,
	store state.Store,
	logger *slog.Logger,
) {
	authFeature.SetupRoutes(router, settings, cookieAuth, logger)

	router.Group(func(r chi.Router) {
		r.Use(common.RequireAuth(settings, cookieAuth))

		navigationFeature.SetupRoutes(r, settings, logger)
		databaseFeature.SetupRoutes(r, settings, store, logger)
		exportFeature.SetupRoutes(r, settings, logger)
		historyFeature.SetupRoutes(r, store, logger)
	})
}
