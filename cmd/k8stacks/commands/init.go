package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
)

// Init returns the command for interactively creating a project file.
//
// Flags:
//
//	--output, -o: Path to output file (default "k8stacks.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a project file",
		Long: `Interactively create a k8stacks.yaml project file.

The wizard asks for:

  - The base domain and the ACME account email
  - The stack name and the state backend
  - The issuer scope and the ACME challenge type
  - The Cloudflare zone and the platform addons

Secrets are never written to the project file. Store them with
'k8stacks secrets set' or export the K8STACKS_* variables.

The wizard needs an interactive terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "k8stacks.yaml", "Output file path")

	return cmd
}
