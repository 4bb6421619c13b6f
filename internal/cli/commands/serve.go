package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MysticExotic/phpmyadmin/internal/cli/config"
	intconfig "github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server for the browser UI.

The server exposes login, navigation, table browsing, SQL execution,
export, and per-user history endpoints for every configured database
server. Configuration changes are picked up while running when --watch
is enabled.`,
		Example: `  # Start on the configured port
  phpmyadmin serve

  # Start on a custom port
  phpmyadmin serve --port 3000

  # Disable config hot-reload
  phpmyadmin serve --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8080)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload configuration on file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// CLI flags override config file
	port := cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	configFile := config.GetConfigFileUsed()
	server := ui.NewServer(ui.Config{
		Settings:   cfg,
		Store:      store,
		Port:       port,
		ConfigPath: configFile,
		Watch:      opts.Watch,
		Reload: func() (*intconfig.Config, error) {
			reloaded, err := config.LoadConfig(configFile, nil)
			if err != nil {
				return nil, err
			}
			if err := reloaded.Validate(); err != nil {
				return nil, err
			}
			return reloaded, nil
		},
		Logger: logger,
	})

	fmt.Printf("Starting server on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.Serve(ctx)
}
