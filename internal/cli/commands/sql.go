package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

// SQLOptions holds options for the sql command.
type SQLOptions struct {
	Server   int
	Database string
	User     string
	Password string
	Format   string
	Input    string
}

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	opts := &SQLOptions{}

	cmd := &cobra.Command{
		Use:   "sql [SQL]",
		Short: "Run SQL against a configured server",
		Long: `Run SQL statements against one of the configured database servers.

Statements can be passed as an argument, read from a file or stdin, or
typed interactively. When invoked without arguments on a terminal,
enters interactive REPL mode with history and tab completion.

Executed statements are recorded in the same query history the web UI
shows.`,
		Example: `  # Execute SQL directly
  phpmyadmin sql "SELECT * FROM mysql.user"

  # Pick a server and default database
  phpmyadmin sql --server 2 --database shop "SHOW TABLES"

  # Output as JSON
  phpmyadmin sql "SELECT VERSION()" --format json

  # Interactive mode
  phpmyadmin sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Server, "server", "s", 1, "Server id from the configuration (1-based)")
	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "Default database")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "Username (overrides the configured user)")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runSQL(cmd *cobra.Command, args []string, opts *SQLOptions) error {
	cfg := getConfig()

	server, err := cfg.Server(opts.Server)
	if err != nil {
		return err
	}

	conn, err := connectServer(cmd.Context(), server, opts.User, opts.Password, opts.Database)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runSQLREPL(cmd, conn, opts)
	}

	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), conn, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, w io.Writer, conn adapter.Adapter, sqlQuery, format string) error {
	rows, err := conn.Query(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows.Rows, format)
}
