package commands

import (
	"github.com/spf13/cobra"
)

// Completion returns the completion command for shell autocompletion.
func Completion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for k8stacks.

Completions cover the commands, their flags and the stack argument of
up, preview, refresh, destroy and outputs (platform or apps).

Load them into the current shell:

  bash:        source <(k8stacks completion bash)
  zsh:         source <(k8stacks completion zsh)
  fish:        k8stacks completion fish | source
  powershell:  k8stacks completion powershell | Out-String | Invoke-Expression

To keep them, write the script to your shell's completion directory, for
example:

  k8stacks completion bash > /etc/bash_completion.d/k8stacks
  k8stacks completion zsh > "${fpath[1]}/_k8stacks"
  k8stacks completion fish > ~/.config/fish/completions/k8stacks.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
