package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
)

// Doctor returns the command for diagnosing the project and its targets.
//
// Optional flags:
//
//	--project, -p: Path to project file
//	--json: Output in JSON format
func Doctor() *cobra.Command {
	var projectPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose project configuration and connectivity",
		Long: `Diagnose your k8stacks project.

Checks:
  - K8STACKS_* environment variables
  - The project file
  - Required and optional client tools
  - The S3 state bucket (s3:// backends)
  - The Cloudflare token and zone
  - Kubernetes API version, cert-manager CRDs and ingress

Exits non-zero when any check fails.

Examples:
  k8stacks doctor
  k8stacks doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), projectPath, jsonOutput)
		},
	}

	addProjectFlag(cmd, &projectPath)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
