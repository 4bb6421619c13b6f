package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MysticExotic/phpmyadmin/internal/export"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Server   int
	User     string
	Password string
	Tables   []string
	Format   string
	Charset  string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <database>",
		Short: "Dump a database to a file or stdout",
		Long: `Dump a database, or selected tables of it, in one of the registered
export formats.`,
		Example: `  # Dump a database as SQL to stdout
  phpmyadmin export shop

  # Dump selected tables to a file
  phpmyadmin export shop --tables orders,customers -o shop.sql

  # CSV export of a single table
  phpmyadmin export shop --tables orders --format csv

  # Re-encode the dump as latin1
  phpmyadmin export legacy --charset latin1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Server, "server", "s", 1, "Server id from the configuration (1-based)")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "Username (overrides the configured user)")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringSliceVarP(&opts.Tables, "tables", "t", nil, "Tables to export (default: all base tables)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "sql", fmt.Sprintf("Export format: %s", strings.Join(export.List(), ", ")))
	cmd.Flags().StringVar(&opts.Charset, "charset", "", "Output charset: utf-8 (default), latin1")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, database string, opts *ExportOptions) error {
	cfg := getConfig()

	server, err := cfg.Server(opts.Server)
	if err != nil {
		return err
	}

	exporter, ok := export.Get(opts.Format)
	if !ok {
		return fmt.Errorf("unknown export format %q (available: %v)", opts.Format, export.List())
	}

	conn, err := connectServer(cmd.Context(), server, opts.User, opts.Password, database)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	return exporter.Export(cmd.Context(), out, conn, export.Options{
		Database: database,
		Tables:   opts.Tables,
		Charset:  opts.Charset,
	})
}
