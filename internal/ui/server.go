// Package ui provides the web server of the administration tool.
package ui

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	pmaauth "github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/secret"
	"github.com/MysticExotic/phpmyadmin/internal/state"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
	"github.com/MysticExotic/phpmyadmin/internal/ui/router"
	"github.com/MysticExotic/phpmyadmin/internal/urlcipher"
)

// Server is the main UI server.
type Server struct {
	settings     *common.Settings
	sessionStore *sessions.CookieStore
	cookieAuth   *pmaauth.CookieAuth
	cipher       *urlcipher.Cipher
	store        state.Store
	port         int
	configPath   string
	watch        bool
	logger       *slog.Logger

	// reload re-reads the configuration when the watched file changes.
	reload func() (*config.Config, error)
}

// Config holds configuration for the UI server.
type Config struct {
	Settings   *config.Config
	Store      state.Store
	Port       int
	ConfigPath string
	Watch      bool
	Reload     func() (*config.Config, error)
	Logger     *slog.Logger
}

// sessionKeys derives the signing and encryption keys of the session
// cookie. The session must be encrypted, not just signed: with no
// configured secret it carries the ephemeral key protecting the login
// cookies. Without a configured secret the keys are random, so sessions
// last until the next restart.
func sessionKeys(blowfishSecret string) (hashKey, blockKey []byte) {
	if blowfishSecret != "" {
		key := secret.NormalizeKey(blowfishSecret)
		return []byte(blowfishSecret), key[:]
	}
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	_, _ = rand.Read(hashKey)
	_, _ = rand.Read(blockKey)
	return hashKey, blockKey
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	hashKey, blockKey := sessionKeys(cfg.Settings.Cookie.BlowfishSecret)
	sessionStore := sessions.NewCookieStore(hashKey, blockKey)
	sessionStore.MaxAge(86400)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	settings := common.NewSettings(cfg.Settings)

	// URL encryption uses its dedicated key when configured, falling back
	// to the cookie secret.
	urlKey := cfg.Settings.URLQueryEncryptionSecretKey
	if urlKey == "" {
		urlKey = cfg.Settings.Cookie.BlowfishSecret
	}

	return &Server{
		settings:     settings,
		sessionStore: sessionStore,
		cookieAuth:   pmaauth.New(cfg.Settings.Cookie, sessionStore),
		cipher:       urlcipher.New(urlKey),
		store:        cfg.Store,
		port:         cfg.Port,
		configPath:   cfg.ConfigPath,
		watch:        cfg.Watch,
		logger:       cfg.Logger,
		reload:       cfg.Reload,
	}
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if s.settings.Get().URLQueryEncryption {
		r.Use(urlcipher.Middleware(s.cipher))
	}

	router.SetupRoutes(r, s.settings, s.cookieAuth, s.store, s.logger)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.configPath != "" && s.reload != nil {
		eg.Go(func() error {
			return s.watchConfig(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchConfig re-reads settings whenever the configuration file changes.
// Server list, navigation, and URL encryption settings take effect on the
// next request; cookie secrets intentionally do not hot-swap because that
// would invalidate every live login.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		s.logger.Error("failed to watch config directory", "error", err)
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.configPath) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				cfg, err := s.reload()
				if err != nil {
					s.logger.Error("config reload failed", "error", err)
					return
				}
				s.settings.Set(cfg)
				s.logger.Info("configuration reloaded", "file", s.configPath)
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
