package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
)

// Backend returns the command group for the state backend.
func Backend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Manage the Pulumi state backend",
	}
	cmd.AddCommand(backendInit())
	return cmd
}

func backendInit() *cobra.Command {
	var projectPath, backendURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the S3 state bucket",
		Long: `Create the bucket of an s3:// backend and enable versioning on it.

The backend URL comes from --url, K8STACKS_BACKEND_URL or the project
file, in that order. Credentials come from the default AWS chain.

Example:
  k8stacks backend init --url "s3://state?region=eu-central-1"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.BackendInit(cmd.Context(), projectPath, backendURL)
		},
	}

	addProjectFlag(cmd, &projectPath)
	cmd.Flags().StringVar(&backendURL, "url", "", "Backend URL (s3://bucket?region=...)")
	return cmd
}
