// Package auth implements cookie authentication: credentials entered once
// in the login form travel in per-server encrypted cookies, with a
// server-side session holding the activity window and, when no secret is
// configured, the ephemeral encryption key.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/secret"
)

const (
	// SessionName is the gorilla session holding auth bookkeeping.
	SessionName = "phpmyadmin"

	userCookiePrefix = "pmaUser-"
	authCookiePrefix = "pmaAuth-"

	sessionEncKey    = "enc_key"
	sessionLastValid = "last_valid-%d"
)

// Credentials is a username/password pair read from cookies or config.
type Credentials struct {
	Username string
	Password string
}

// CookieAuth reads and writes the login cookies for all configured servers.
type CookieAuth struct {
	cfg      config.CookieConfig
	sessions sessions.Store
	key      *secret.Key

	// now is swappable for validity-window tests.
	now func() time.Time
}

// New builds a CookieAuth. The configured secret is normalized once; when
// it is empty every session gets its own ephemeral key.
func New(cfg config.CookieConfig, store sessions.Store) *CookieAuth {
	return &CookieAuth{
		cfg:      cfg,
		sessions: store,
		key:      secret.NormalizeKey(cfg.BlowfishSecret),
		now:      time.Now,
	}
}

// Credentials resolves credentials for a server: config-auth servers answer
// from their own settings, cookie-auth servers from the login cookies. The
// boolean result means "usable credentials"; false always means show the
// login form.
func (a *CookieAuth) Credentials(w http.ResponseWriter, r *http.Request, serverID int, server *config.ServerConfig) (Credentials, bool) {
	if server.AuthType == config.AuthTypeConfig {
		return Credentials{Username: server.User, Password: server.Password}, true
	}
	return a.ReadCredentials(w, r, serverID)
}

// ReadCredentials decodes the login cookies for one server. Missing
// cookies, undecryptable payloads, and an expired activity window all
// return ok=false.
func (a *CookieAuth) ReadCredentials(w http.ResponseWriter, r *http.Request, serverID int) (Credentials, bool) {
	session, _ := a.sessions.Get(r, SessionName)

	key := a.sessionKey(session)
	if key == nil {
		return Credentials{}, false
	}

	userCookie, err := r.Cookie(userCookiePrefix + itoa(serverID))
	if err != nil {
		return Credentials{}, false
	}
	username := secret.Open(userCookie.Value, key)
	if username == nil {
		return Credentials{}, false
	}

	authCookie, err := r.Cookie(authCookiePrefix + itoa(serverID))
	if err != nil {
		return Credentials{}, false
	}
	password := secret.Open(authCookie.Value, key)
	if password == nil {
		return Credentials{}, false
	}

	if a.expired(session, serverID) {
		return Credentials{}, false
	}
	a.touch(session, serverID)
	_ = session.Save(r, w)

	return Credentials{Username: string(username), Password: string(password)}, true
}

// StoreCredentials writes the login cookies after a successful login. The
// username cookie persists for LoginCookieStore seconds (or the session);
// the password cookie never outlives the browser session.
func (a *CookieAuth) StoreCredentials(w http.ResponseWriter, r *http.Request, serverID int, creds Credentials) error {
	session, _ := a.sessions.Get(r, SessionName)

	key := a.sessionKey(session)
	if key == nil {
		fresh, err := secret.GenerateKey()
		if err != nil {
			return err
		}
		session.Values[sessionEncKey] = fresh[:]
		key = fresh
	}

	user, err := secret.Seal([]byte(creds.Username), key)
	if err != nil {
		return fmt.Errorf("failed to seal username: %w", err)
	}
	pass, err := secret.Seal([]byte(creds.Password), key)
	if err != nil {
		return fmt.Errorf("failed to seal password: %w", err)
	}

	http.SetCookie(w, a.cookie(userCookiePrefix+itoa(serverID), user, a.cfg.LoginCookieStore))
	http.SetCookie(w, a.cookie(authCookiePrefix+itoa(serverID), pass, 0))

	a.touch(session, serverID)
	return session.Save(r, w)
}

// ClearCredentials expires the login cookies and drops the session
// bookkeeping for one server.
func (a *CookieAuth) ClearCredentials(w http.ResponseWriter, r *http.Request, serverID int) {
	session, _ := a.sessions.Get(r, SessionName)

	http.SetCookie(w, a.cookie(userCookiePrefix+itoa(serverID), "", -1))
	http.SetCookie(w, a.cookie(authCookiePrefix+itoa(serverID), "", -1))

	delete(session.Values, fmt.Sprintf(sessionLastValid, serverID))
	_ = session.Save(r, w)
}

// sessionKey resolves the encryption key: the configured secret wins,
// otherwise the ephemeral key kept in the session, otherwise nil.
func (a *CookieAuth) sessionKey(session *sessions.Session) *secret.Key {
	if a.key != nil {
		return a.key
	}
	raw, ok := session.Values[sessionEncKey].([]byte)
	if !ok || len(raw) != secret.KeyLength {
		return nil
	}
	var k secret.Key
	copy(k[:], raw)
	return &k
}

// expired checks the inactivity window.
func (a *CookieAuth) expired(session *sessions.Session, serverID int) bool {
	if a.cfg.LoginCookieValidity <= 0 {
		return false
	}
	last, ok := session.Values[fmt.Sprintf(sessionLastValid, serverID)].(int64)
	if !ok {
		// No recorded activity: the cookies may be long-lived leftovers,
		// require a fresh login.
		return true
	}
	return a.now().Unix()-last > int64(a.cfg.LoginCookieValidity)
}

// touch records activity for the validity window.
func (a *CookieAuth) touch(session *sessions.Session, serverID int) {
	session.Values[fmt.Sprintf(sessionLastValid, serverID)] = a.now().Unix()
}

func (a *CookieAuth) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
