// Package commands implements the CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/cli/config"
	intconfig "github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/state"
)

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables with defaults.
func getConfig() *intconfig.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	statePath := os.Getenv("PMA_STATE_PATH")
	if statePath == "" {
		statePath = intconfig.DefaultStatePath
	}

	cfg := &intconfig.Config{
		StatePath: statePath,
		Port:      intconfig.DefaultPort,
		Verbose:   os.Getenv("PMA_VERBOSE") == "true",
	}
	cfg.Navigation.TreeEnableGrouping = true
	cfg.Navigation.TreeDbSeparator = intconfig.DefaultTreeDbSeparator
	cfg.Navigation.MaxNavigationItems = intconfig.DefaultMaxNavigationItems
	cfg.Navigation.TreeDisplayItemFilterMinimum = intconfig.DefaultFilterMinimum
	cfg.Cookie.LoginCookieValidity = intconfig.DefaultLoginCookieValidity
	return cfg
}

// openStore opens (and migrates) the state database.
// Returns the store and a cleanup function that must be called.
func openStore(cfg *intconfig.Config) (*state.SQLiteStore, func(), error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	return store, func() { _ = store.Close() }, nil
}

// connectServer opens an adapter connection to the given server entry.
// The user and password arguments override the configured credentials;
// when no password is available and stdin is a terminal, it prompts.
func connectServer(ctx context.Context, server *intconfig.ServerConfig, user, password, database string) (adapter.Adapter, error) {
	if user == "" {
		user = server.User
	}
	if user == "" {
		return nil, fmt.Errorf("server %q: no user configured, pass --user", server.DisplayName())
	}
	if password == "" {
		password = server.Password
	}
	if password == "" && server.AuthType == intconfig.AuthTypeCookie && isTerminal(os.Stdin) {
		var err error
		password, err = promptPassword(fmt.Sprintf("Password for %s@%s: ", user, server.DisplayName()))
		if err != nil {
			return nil, err
		}
	}

	conn, err := adapter.New("mysql")
	if err != nil {
		return nil, err
	}
	err = conn.Connect(ctx, adapter.Config{
		Host:     server.Host,
		Port:     server.Port,
		Socket:   server.Socket,
		Database: database,
		Username: user,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server.DisplayName(), err)
	}
	return conn, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
