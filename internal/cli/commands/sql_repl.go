package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/state"
)

func runSQLREPL(cmd *cobra.Command, conn adapter.Adapter, opts *SQLOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()

	// The REPL shares the query history store with the web UI.
	store, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Setup history file next to the state database
	historyFile := filepath.Join(filepath.Dir(cfg.StatePath), "sql_history")

	// Get database names for completion
	completer := newDatabaseCompleter(ctx, conn)

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "phpmyadmin> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	server, err := cfg.Server(opts.Server)
	if err != nil {
		return err
	}

	version, err := conn.ServerVersion(ctx)
	if err != nil {
		version = "unknown"
	}
	user, err := conn.CurrentUser(ctx)
	if err != nil {
		user = opts.User
	}

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (server version %s) as %s\n",
		server.DisplayName(), version, user)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	repl := &replSession{
		conn:     conn,
		store:    store,
		server:   opts.Server,
		username: user,
		database: opts.Database,
		format:   opts.Format,
	}

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("phpmyadmin> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := repl.handleDotCommand(ctx, cmd, line); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("       ...> ")
			continue
		}
		rl.SetPrompt("phpmyadmin> ")

		// Execute query
		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := repl.execute(ctx, cmd.OutOrStdout(), query); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// replSession holds the mutable state of one interactive session.
type replSession struct {
	conn     adapter.Adapter
	store    state.Store
	server   int
	username string
	database string
	format   string
}

// execute runs a statement, records it in the history, and renders results.
func (s *replSession) execute(ctx context.Context, w io.Writer, query string) error {
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	// History is best effort; the result still renders.
	_, _ = s.store.AddHistory(s.server, s.username, s.database, query)

	return renderResults(w, rows.Rows, s.format)
}

func (s *replSession) handleDotCommand(ctx context.Context, cmd *cobra.Command, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".databases":
		if err := executeAndRender(ctx, cmd.OutOrStdout(), s.conn, "SHOW DATABASES", s.format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".tables":
		if err := executeAndRender(ctx, cmd.OutOrStdout(), s.conn, "SHOW TABLES", s.format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".use":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .use <database>")
			return true
		}
		if err := s.conn.Exec(ctx, "USE "+adapter.Backquote(parts[1])); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		s.database = parts[1]
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database changed to %s\n", parts[1])
		return true

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current format: %s\n", s.format)
			return true
		}
		switch parts[1] {
		case "table", "json", "csv", "md", "markdown":
			s.format = parts[1]
		default:
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown format: %s (table, json, csv, md)\n", parts[1])
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .databases       List databases
  .tables          List tables in the current database
  .use <database>  Change the default database
  .format [fmt]    Show or set the output format (table, json, csv, md)
  .clear           Clear the screen
  .quit / .exit    Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for database names
`
	_, _ = fmt.Fprintln(w, help)
}

// newDatabaseCompleter creates a readline completer for database names.
func newDatabaseCompleter(ctx context.Context, conn adapter.Adapter) *readline.PrefixCompleter {
	names, err := conn.QueryStrings(ctx, "SHOW DATABASES")
	if err != nil {
		return readline.NewPrefixCompleter()
	}

	var items []readline.PrefixCompleterInterface
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".databases"),
		readline.PcItem(".tables"),
		readline.PcItem(".use"),
		readline.PcItem(".format"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
