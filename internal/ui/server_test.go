package ui

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/config"
)

func serverSettings(mutate func(*config.Config)) *config.Config {
	cfg := &config.Config{
		Servers: []config.ServerConfig{
			{Name: "primary", Host: "localhost", AuthType: config.AuthTypeCookie},
		},
		Cookie: config.CookieConfig{LoginCookieValidity: 1440},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func TestSessionKeys(t *testing.T) {
	hash, block := sessionKeys("my secret")
	assert.Equal(t, []byte("my secret"), hash)
	assert.Len(t, block, 32)

	// Without a secret both keys are random per process.
	h1, b1 := sessionKeys("")
	h2, b2 := sessionKeys("")
	assert.Len(t, h1, 64)
	assert.Len(t, b1, 32)
	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, b1, b2)
}

func TestNewServer_LoginWithoutConfiguredSecret(t *testing.T) {
	s := NewServer(Config{
		Settings: serverSettings(nil),
		Logger:   slog.New(slog.DiscardHandler),
	})

	// Storing credentials generates an ephemeral key and saves it in the
	// session.
	login := httptest.NewRecorder()
	seed := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	require.NoError(t, s.cookieAuth.StoreCredentials(login, seed, 1, auth.Credentials{
		Username: "root", Password: "pw",
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}

	creds, ok := s.cookieAuth.ReadCredentials(httptest.NewRecorder(), req, 1)
	require.True(t, ok)
	assert.Equal(t, "root", creds.Username)
	assert.Equal(t, "pw", creds.Password)
}

func TestNewServer_URLCipherKey(t *testing.T) {
	t.Run("dedicated key", func(t *testing.T) {
		s := NewServer(Config{
			Settings: serverSettings(func(c *config.Config) {
				c.URLQueryEncryption = true
				c.URLQueryEncryptionSecretKey = "url key"
			}),
			Logger: slog.New(slog.DiscardHandler),
		})
		assert.True(t, s.cipher.Enabled())
	})

	t.Run("falls back to the cookie secret", func(t *testing.T) {
		s := NewServer(Config{
			Settings: serverSettings(func(c *config.Config) {
				c.URLQueryEncryption = true
				c.Cookie.BlowfishSecret = "cookie secret"
			}),
			Logger: slog.New(slog.DiscardHandler),
		})
		assert.True(t, s.cipher.Enabled())
	})

	t.Run("no key at all", func(t *testing.T) {
		cfg := serverSettings(func(c *config.Config) {
			c.URLQueryEncryption = true
			c.Navigation.MaxNavigationItems = 50
		})
		assert.ErrorContains(t, cfg.Validate(), "url_query_encryption requires")
	})
}
