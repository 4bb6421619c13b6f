package config

// Default configuration values.
const (
	DefaultPort                = 8080
	DefaultMySQLPort           = 3306
	DefaultStatePath           = ".phpmyadmin/state.db"
	DefaultTreeDbSeparator     = "_"
	DefaultMaxNavigationItems  = 50
	DefaultFilterMinimum       = 30
	DefaultLoginCookieValidity = 1440
)

// Defaults returns the default configuration map loaded before any file,
// environment, or flag values.
func Defaults() map[string]any {
	return map[string]any{
		"port":       DefaultPort,
		"state_path": DefaultStatePath,
		"verbose":    false,

		"navigation.tree_enable_grouping": true,
		"navigation.tree_db_separator":    DefaultTreeDbSeparator,
		"navigation.max_items":            DefaultMaxNavigationItems,
		"navigation.filter_minimum":       DefaultFilterMinimum,

		"cookie.login_cookie_validity": DefaultLoginCookieValidity,
		"cookie.login_cookie_store":    0,

		"url_query_encryption": false,
	}
}

// ApplyServerDefaults fills per-server defaults that cannot come from the
// flat defaults map.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Port == 0 && s.Socket == "" {
		s.Port = DefaultMySQLPort
	}
	if s.AuthType == "" {
		s.AuthType = AuthTypeCookie
	}
	if s.Name == "" {
		s.Name = s.DisplayName()
	}
}
