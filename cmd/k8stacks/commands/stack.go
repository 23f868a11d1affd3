package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
	"github.com/imamik/k8stacks/internal/stacks"
)

// stackHandler runs one lifecycle operation.
type stackHandler func(ctx context.Context, opts handlers.StackOptions) error

// stackCommand builds a command taking a single stack argument.
func stackCommand(use, short, long string, run stackHandler) (*cobra.Command, *handlers.StackOptions) {
	opts := &handlers.StackOptions{}

	cmd := &cobra.Command{
		Use:       use + " <platform|apps>",
		Short:     short,
		Long:      long,
		ValidArgs: stacks.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Stack = args[0]
			return run(cmd.Context(), *opts)
		},
	}

	addProjectFlag(cmd, &opts.ProjectPath)
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not stream engine events")

	return cmd, opts
}

// Up returns the command that deploys a stack.
func Up() *cobra.Command {
	cmd, _ := stackCommand("up", "Deploy a stack",
		`Deploy the platform or apps stack.

The stack configuration is rendered from the project file and the
resolved secrets, then the inline program runs through the Pulumi
Automation API. Deploy the platform stack before the apps stack.

Examples:
  k8stacks up platform
  k8stacks up apps -p ./prod/k8stacks.yaml`,
		handlers.Up)
	return cmd
}

// Preview returns the command that previews a stack update.
func Preview() *cobra.Command {
	cmd, _ := stackCommand("preview", "Preview changes to a stack",
		`Show what 'k8stacks up' would change without applying it.`,
		handlers.Preview)
	return cmd
}

// Refresh returns the command that reconciles stack state with the cluster.
func Refresh() *cobra.Command {
	cmd, _ := stackCommand("refresh", "Refresh stack state from the cluster",
		`Read the live state of every resource and update the stack state.`,
		handlers.Refresh)
	return cmd
}

// Destroy returns the command that tears a stack down.
//
// Flags:
//
//	--remove: Delete the stack and its configuration afterwards
//	--yes, -y: Skip the confirmation prompt
func Destroy() *cobra.Command {
	cmd, opts := stackCommand("destroy", "Destroy all resources of a stack",
		`Destroy removes every resource declared by the stack.

Destroy the apps stack before the platform stack. When external-dns
is enabled, destroying the platform also deletes the Cloudflare
records it owned.

Example:
  k8stacks destroy apps --yes

WARNING: This operation is irreversible. Application data is lost.`,
		handlers.Destroy)

	cmd.Flags().BoolVar(&opts.Remove, "remove", false, "Remove the stack and its configuration after destroying")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// Outputs returns the command that prints stack outputs.
func Outputs() *cobra.Command {
	var projectPath string
	var showSecrets bool

	cmd := &cobra.Command{
		Use:       "outputs <platform|apps>",
		Short:     "Print stack outputs",
		Long:      `Print the outputs of a deployed stack as YAML. Secret outputs are masked unless --show-secrets is set.`,
		ValidArgs: stacks.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Outputs(cmd.Context(), projectPath, args[0], showSecrets)
		},
	}

	addProjectFlag(cmd, &projectPath)
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret outputs in plain text")

	return cmd
}
