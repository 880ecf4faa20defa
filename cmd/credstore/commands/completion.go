package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/credstore/internal/config"
)

// NewCompletionCommand creates the completion command for generating shell completions.
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for credstore.

Load it for the current session:

  bash:  source <(credstore completion bash)
  zsh:   source <(credstore completion zsh)
  fish:  credstore completion fish | source

Or install it permanently, for example:

  credstore completion bash > /etc/bash_completion.d/credstore
  credstore completion zsh > "${fpath[1]}/_credstore"
  credstore completion fish > ~/.config/fish/completions/credstore.fish

PowerShell users can pipe the output through Invoke-Expression or source it
from their profile:

  credstore completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
