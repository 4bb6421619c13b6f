package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	pmaauth "github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// Handlers provides HTTP handlers for authentication.
type Handlers struct {
	settings   *common.Settings
	cookieAuth *pmaauth.CookieAuth
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(settings *common.Settings, cookieAuth *pmaauth.CookieAuth, logger *slog.Logger) *Handlers {
	return &Handlers{settings: settings, cookieAuth: cookieAuth, logger: logger}
}

type loginRequest struct {
	Server   int    `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Server  int    `json:"server"`
	User    string `json:"user"`
	Version string `json:"version"`
}

// Login verifies the submitted credentials against the target server and,
// on success, stores them in encrypted cookies.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Server < 1 {
		req.Server = 1
	}
	server, err := h.settings.Get().Server(req.Server)
	if err != nil {
		common.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	// The only way to validate credentials is to connect with them.
	ra := &common.RequestAuth{
		ServerID: req.Server,
		Server:   server,
		Creds:    pmaauth.Credentials{Username: req.Username, Password: req.Password},
	}
	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		h.logger.Info("login failed", "server", req.Server, "user", req.Username)
		common.WriteError(w, http.StatusUnauthorized, "access denied")
		return
	}
	defer func() { _ = conn.Close() }()

	version, err := conn.ServerVersion(r.Context())
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user, err := conn.CurrentUser(r.Context())
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.cookieAuth.StoreCredentials(w, r, req.Server, ra.Creds); err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("login", "server", req.Server, "user", user)
	common.WriteJSON(w, http.StatusOK, loginResponse{Server: req.Server, User: user, Version: version})
}

// Logout clears the login cookies for the request's server.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	serverID := common.ServerID(r)
	h.cookieAuth.ClearCredentials(w, r, serverID)
	common.WriteJSON(w, http.StatusOK, map[string]any{"server": serverID})
}

// Session reports whether the request carries usable credentials.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	serverID := common.ServerID(r)
	server, err := h.settings.Get().Server(serverID)
	if err != nil {
		common.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	creds, ok := h.cookieAuth.Credentials(w, r, serverID, server)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"server":   serverID,
		"username": creds.Username,
	})
}

// Servers lists the configured servers for the login form. Credentials are
// never included.
func (h *Handlers) Servers(w http.ResponseWriter, r *http.Request) {
	cfg := h.settings.Get()
	type serverInfo struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Auth string `json:"auth_type"`
	}
	servers := make([]serverInfo, len(cfg.Servers))
	for i := range cfg.Servers {
		servers[i] = serverInfo{
			ID:   i + 1,
			Name: cfg.Servers[i].DisplayName(),
			Auth: cfg.Servers[i].AuthType,
		}
	}
	common.WriteJSON(w, http.StatusOK, servers)
}
