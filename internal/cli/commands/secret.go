package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MysticExotic/phpmyadmin/internal/secret"
)

// NewSecretCommand creates the secret command.
func NewSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a cookie encryption secret",
		Long: `Generate a random secret suitable for cookie.blowfish_secret or
url_query_encryption_secret_key.

Without a configured secret, login cookies are protected with an
ephemeral per-session key and do not survive a server restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secret.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate secret: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key[:]))
			return nil
		},
	}
}
