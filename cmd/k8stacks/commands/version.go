package commands

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/imamik/k8stacks/internal/util/prerequisites"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// pulumiModules are the SDK modules the stack programs are compiled against.
var pulumiModules = []string{
	"github.com/pulumi/pulumi/sdk/v3",
	"github.com/pulumi/pulumi-kubernetes/sdk/v4",
	"github.com/pulumi/pulumi-cloudflare/sdk/v5",
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// SetVersionInfo sets the version information from main.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Version returns the version command.
func Version() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the k8stacks and Pulumi SDK versions",
		Long: `Print the k8stacks build and the Pulumi SDK and provider versions the
platform and apps programs were compiled against, along with the oldest
pulumi CLI the Automation API supports.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the k8stacks version")
	return cmd
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}

	fmt.Fprintf(w, "k8stacks %s\n", version)
	fmt.Fprintf(w, "  commit: %s\n", commit)
	fmt.Fprintf(w, "  built:  %s\n", date)
	fmt.Fprintf(w, "  pulumi CLI: >= %s\n", prerequisites.MinPulumiVersion)

	deps := sdkVersions()
	for _, path := range pulumiModules {
		if v, ok := deps[path]; ok {
			fmt.Fprintf(w, "  %s %s\n", path, v)
		}
	}
}

// sdkVersions returns the linked versions of pulumiModules.
func sdkVersions() map[string]string {
	info, ok := readBuildInfo()
	if !ok {
		return nil
	}
	versions := map[string]string{}
	for _, dep := range info.Deps {
		mod := dep
		if dep.Replace != nil {
			mod = dep.Replace
		}
		versions[dep.Path] = mod.Version
	}
	return versions
}
