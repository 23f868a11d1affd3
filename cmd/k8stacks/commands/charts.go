package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/cmd/k8stacks/handlers"
	"github.com/imamik/k8stacks/internal/helm"
)

// Charts returns the command group for the pinned Helm charts.
func Charts() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Inspect the pinned Helm charts",
	}

	cmd.AddCommand(chartsList())
	cmd.AddCommand(chartsVerify())
	cmd.AddCommand(chartsTemplate())

	return cmd
}

func chartsList() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chart pins and project overrides",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ChartsList(projectPath)
		},
	}

	addProjectFlag(cmd, &projectPath)
	return cmd
}

func chartsVerify() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every pinned chart resolves",
		Long: `Validate every chart pin and download it from its repository.

Pins are checked for a valid semantic version. Charts are fetched in
parallel into the Helm cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ChartsVerify(cmd.Context(), projectPath)
		},
	}

	addProjectFlag(cmd, &projectPath)
	return cmd
}

func chartsTemplate() *cobra.Command {
	var projectPath, app string

	cmd := &cobra.Command{
		Use:   "template <addon>",
		Short: "Render an addon chart with the values the stacks use",
		Long: `Render the manifests of an addon chart locally.

Values are the computed defaults merged with the project overrides,
exactly as the stacks declare the release.

Example:
  k8stacks charts template ingress-nginx
  k8stacks charts template postgresql --app blog`,
		ValidArgs: helm.Addons(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ChartsTemplate(cmd.Context(), projectPath, args[0], app)
		},
	}

	addProjectFlag(cmd, &projectPath)
	cmd.Flags().StringVar(&app, "app", "", "App owning the database release (postgresql and mysql only)")
	return cmd
}
