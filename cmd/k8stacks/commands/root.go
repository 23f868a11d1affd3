// Package commands defines the CLI command structure and flag bindings.
//
// Cobra commands here parse arguments and flags only. Execution is
// delegated to the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the k8stacks CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "k8stacks",
		Short:        "Deploy a Kubernetes platform and apps as Pulumi stacks",
		SilenceUsage: true,
	}

	// Stack lifecycle
	cmd.AddCommand(Init())
	cmd.AddCommand(Up())
	cmd.AddCommand(Preview())
	cmd.AddCommand(Refresh())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Outputs())

	// Tooling
	cmd.AddCommand(Charts())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Backend())
	cmd.AddCommand(Secrets())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// addProjectFlag binds the shared --project flag.
func addProjectFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "project", "p", "", "Path to project file (default: k8stacks.yaml in this or a parent directory)")
}
