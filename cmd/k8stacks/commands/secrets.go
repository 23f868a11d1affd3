package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
	"github.com/imamik/k8stacks/internal/credentials"
)

// Secrets returns the command group for keyring secrets.
func Secrets() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secrets stored in the OS keyring",
		Long: `Manage the secrets fed into stack configuration.

Known secrets:
  cloudflare-api-token  (K8STACKS_CLOUDFLARE_API_TOKEN)
  root-password         (K8STACKS_ROOT_PASSWORD)

Environment variables take precedence over the keyring.`,
	}

	cmd.AddCommand(secretsList())
	cmd.AddCommand(secretsSet())
	cmd.AddCommand(secretsDelete())

	return cmd
}

func secretsList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show where each secret is resolved from",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.SecretsList()
		},
	}
}

func secretsSet() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:       "set <name>",
		Short:     "Store a secret in the keyring",
		ValidArgs: credentials.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SecretsSet(cmd.Context(), args[0], fromStdin)
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from standard input")
	return cmd
}

func secretsDelete() *cobra.Command {
	return &cobra.Command{
		Use:       "delete <name>",
		Short:     "Remove a secret from the keyring",
		ValidArgs: credentials.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.SecretsDelete(args[0])
		},
	}
}
