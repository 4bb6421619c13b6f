// Package common provides the shared request plumbing for the UI features:
// settings access, the authentication middleware, per-request database
// connections, and JSON helpers.
package common

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/config"
)

// Settings holds the live configuration. The config watcher swaps it on
// reload, so handlers must read through Get.
type Settings struct {
	mu  sync.RWMutex
	cfg *config.Config
}

// NewSettings wraps an initial configuration.
func NewSettings(cfg *config.Config) *Settings {
	return &Settings{cfg: cfg}
}

// Get returns the current configuration.
func (s *Settings) Get() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set swaps the configuration.
func (s *Settings) Set(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// RequestAuth is the resolved identity of one request.
type RequestAuth struct {
	ServerID int
	Server   *config.ServerConfig
	Creds    auth.Credentials
}

type authKey struct{}

// AuthFrom returns the request identity placed by RequireAuth.
func AuthFrom(ctx context.Context) (*RequestAuth, bool) {
	ra, ok := ctx.Value(authKey{}).(*RequestAuth)
	return ra, ok
}

// WithAuth stores a request identity in the context. Exposed for handler
// tests.
func WithAuth(ctx context.Context, ra *RequestAuth) context.Context {
	return context.WithValue(ctx, authKey{}, ra)
}

// ServerID extracts the 1-based server id from the request, defaulting
// to 1.
func ServerID(r *http.Request) int {
	raw := r.URL.Query().Get("server")
	if raw == "" {
		return 1
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 1
	}
	return id
}

// RequireAuth resolves credentials for the request's server and rejects the
// request with 401 when none are available. Incomplete or undecryptable
// cookies are not errors, they just mean the login form must be shown.
func RequireAuth(settings *Settings, cookieAuth *auth.CookieAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serverID := ServerID(r)
			server, err := settings.Get().Server(serverID)
			if err != nil {
				WriteError(w, http.StatusNotFound, err.Error())
				return
			}
			creds, ok := cookieAuth.Credentials(w, r, serverID, server)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			ra := &RequestAuth{ServerID: serverID, Server: server, Creds: creds}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ra)))
		})
	}
}

// Connect opens a request-scoped connection for the authenticated identity.
// The caller must Close it. Declared as a variable so handler tests can
// substitute a stub connector.
var Connect = func(ctx context.Context, ra *RequestAuth) (adapter.Adapter, error) {
	a, err := adapter.New("mysql")
	if err != nil {
		return nil, err
	}
	cfg := adapter.Config{
		Host:     ra.Server.Host,
		Port:     ra.Server.Port,
		Socket:   ra.Server.Socket,
		Username: ra.Creds.Username,
		Password: ra.Creds.Password,
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// WriteJSON writes a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}
