package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pmaauth "github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

func setupTestHandlers(t *testing.T) (*Handlers, *pmaauth.CookieAuth) {
	t.Helper()

	settings := common.NewSettings(&config.Config{
		Servers: []config.ServerConfig{
			{Name: "primary", Host: "localhost", AuthType: config.AuthTypeCookie},
			{Name: "trusted", Host: "localhost", AuthType: config.AuthTypeConfig, User: "app", Password: "pw"},
		},
	})
	cookieAuth := pmaauth.New(config.CookieConfig{
		BlowfishSecret:      "test secret",
		LoginCookieValidity: 1440,
	}, sessions.NewCookieStore([]byte("session-signing-key")))

	return NewHandlers(settings, cookieAuth, slog.New(slog.DiscardHandler)), cookieAuth
}

func TestServers(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Servers(rec, httptest.NewRequest(http.MethodGet, "/api/servers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var servers []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Auth string `json:"auth_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &servers))
	require.Len(t, servers, 2)
	assert.Equal(t, 1, servers[0].ID)
	assert.Equal(t, "primary", servers[0].Name)
	assert.Equal(t, config.AuthTypeCookie, servers[0].Auth)
	assert.Equal(t, 2, servers[1].ID)
	assert.Equal(t, config.AuthTypeConfig, servers[1].Auth)

	// Credentials never leak into the listing.
	assert.NotContains(t, rec.Body.String(), "pw")
}

func TestLogin_BadRequests(t *testing.T) {
	h, _ := setupTestHandlers(t)

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown server", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"server":9,"username":"root"}`)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSession(t *testing.T) {
	h, cookieAuth := setupTestHandlers(t)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Session(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown server", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Session(rec, httptest.NewRequest(http.MethodGet, "/api/session?server=9", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("config auth server", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Session(rec, httptest.NewRequest(http.MethodGet, "/api/session?server=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "app", body["username"])
	})

	t.Run("with login cookies", func(t *testing.T) {
		login := httptest.NewRecorder()
		seed := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		require.NoError(t, cookieAuth.StoreCredentials(login, seed, 1, pmaauth.Credentials{
			Username: "root", Password: "pw",
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		for _, c := range login.Result().Cookies() {
			req.AddCookie(c)
		}

		rec := httptest.NewRecorder()
		h.Session(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "root", body["username"])
	})
}

func TestLogout(t *testing.T) {
	h, cookieAuth := setupTestHandlers(t)

	login := httptest.NewRecorder()
	seed := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	require.NoError(t, cookieAuth.StoreCredentials(login, seed, 1, pmaauth.Credentials{
		Username: "root", Password: "pw",
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Both credential cookies come back expired.
	expired := 0
	for _, c := range rec.Result().Cookies() {
		if strings.HasPrefix(c.Name, "pmaUser-") || strings.HasPrefix(c.Name, "pmaAuth-") {
			assert.Equal(t, -1, c.MaxAge)
			assert.Empty(t, c.Value)
			expired++
		}
	}
	assert.Equal(t, 2, expired)
}
