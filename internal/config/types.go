// Package config provides shared configuration types for the administration
// tool. This package is decoupled from CLI concerns so the web server and
// other tools can load settings without pulling in cobra.
package config

import (
	"fmt"
	"regexp"
)

// Auth types supported for a server entry.
const (
	AuthTypeCookie = "cookie"
	AuthTypeConfig = "config"
)

// ServerConfig holds connection and access settings for one managed
// MySQL/MariaDB server.
type ServerConfig struct {
	// Name is the display name shown in the UI. Defaults to host.
	Name string `koanf:"name"`

	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	Socket string `koanf:"socket"`

	// User and Password are only used when AuthType is "config".
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// AuthType selects the authentication mode: "cookie" (login form,
	// credentials kept in encrypted cookies) or "config" (credentials
	// taken from this struct).
	AuthType string `koanf:"auth_type"`

	// OnlyDB restricts the visible databases to the listed name patterns
	// (SQL LIKE wildcards % and _ allowed). When set, database enumeration
	// issues one SHOW DATABASES LIKE per pattern.
	OnlyDB []string `koanf:"only_db"`

	// HideDB is a regular expression; matching database names are hidden
	// from enumeration.
	HideDB string `koanf:"hide_db"`

	// DisableIS forces SHOW-based catalog access instead of
	// INFORMATION_SCHEMA queries.
	DisableIS bool `koanf:"disable_is"`
}

// Validate checks the server entry for usable values.
func (s *ServerConfig) Validate() error {
	if s.Host == "" && s.Socket == "" {
		return fmt.Errorf("server %q: host or socket is required", s.Name)
	}
	switch s.AuthType {
	case AuthTypeCookie, AuthTypeConfig:
	default:
		return fmt.Errorf("server %q: unknown auth_type %q", s.Name, s.AuthType)
	}
	if s.AuthType == AuthTypeConfig && s.User == "" {
		return fmt.Errorf("server %q: auth_type config requires user", s.Name)
	}
	if _, err := s.HideDBRegexp(); err != nil {
		return fmt.Errorf("server %q: invalid hide_db: %w", s.Name, err)
	}
	return nil
}

// HideDBRegexp compiles the hide_db pattern. Returns nil when unset.
func (s *ServerConfig) HideDBRegexp() (*regexp.Regexp, error) {
	if s.HideDB == "" {
		return nil, nil
	}
	return regexp.Compile(s.HideDB)
}

// DisplayName returns the configured name, falling back to host or socket.
func (s *ServerConfig) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Host != "" {
		return s.Host
	}
	return s.Socket
}

// NavigationConfig controls the navigation tree behavior.
type NavigationConfig struct {
	// TreeEnableGrouping buckets sibling items sharing a common prefix
	// into group nodes.
	TreeEnableGrouping bool `koanf:"tree_enable_grouping"`

	// TreeDbSeparator is the substring separating a group prefix from the
	// rest of a database name.
	TreeDbSeparator string `koanf:"tree_db_separator"`

	// MaxNavigationItems is the page size for tree listings.
	MaxNavigationItems int `koanf:"max_items"`

	// TreeDisplayItemFilterMinimum is the child count above which the UI
	// shows a filter box. Kept server-side because pagination totals are
	// computed here.
	TreeDisplayItemFilterMinimum int `koanf:"filter_minimum"`
}

// CookieConfig controls cookie authentication.
type CookieConfig struct {
	// BlowfishSecret is the symmetric secret protecting login cookies.
	// Any length is accepted; it is normalized to a 32-byte key. When
	// empty an ephemeral per-session key is generated.
	BlowfishSecret string `koanf:"blowfish_secret"`

	// LoginCookieValidity is the inactivity window in seconds after which
	// a login is considered expired.
	LoginCookieValidity int `koanf:"login_cookie_validity"`

	// LoginCookieStore is the lifetime in seconds of the username cookie.
	// Zero makes it a session cookie.
	LoginCookieStore int `koanf:"login_cookie_store"`
}

// Config is the root configuration.
type Config struct {
	Servers    []ServerConfig   `koanf:"servers"`
	Navigation NavigationConfig `koanf:"navigation"`
	Cookie     CookieConfig     `koanf:"cookie"`

	// URLQueryEncryption hides sensitive query parameters (database and
	// table names, SQL text) behind a single encrypted parameter.
	URLQueryEncryption          bool   `koanf:"url_query_encryption"`
	URLQueryEncryptionSecretKey string `koanf:"url_query_encryption_secret_key"`

	// StatePath is the SQLite database holding query history and
	// recent/favorite tables.
	StatePath string `koanf:"state_path"`

	Port    int  `koanf:"port"`
	Verbose bool `koanf:"verbose"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("at least one server must be configured")
	}
	for i := range c.Servers {
		if err := c.Servers[i].Validate(); err != nil {
			return err
		}
	}
	if c.Navigation.MaxNavigationItems <= 0 {
		return fmt.Errorf("navigation.max_items must be positive")
	}
	if c.URLQueryEncryption && c.URLQueryEncryptionSecretKey == "" && c.Cookie.BlowfishSecret == "" {
		return fmt.Errorf("url_query_encryption requires url_query_encryption_secret_key or cookie.blowfish_secret")
	}
	return nil
}

// Server returns the server entry with the given 1-based id.
func (c *Config) Server(id int) (*ServerConfig, error) {
	if id < 1 || id > len(c.Servers) {
		return nil, fmt.Errorf("no such server: %d", id)
	}
	return &c.Servers[id-1], nil
}
