package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for worktime.

Bash:
  source <(worktime completion bash)
  worktime completion bash > ~/.local/share/bash-completion/completions/worktime

Zsh:
  worktime completion zsh > "${fpath[1]}/_worktime"

Fish:
  worktime completion fish > ~/.config/fish/completions/worktime.fish

PowerShell:
  worktime completion powershell | Out-String | Invoke-Expression`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		generateCompletion(args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

var completionGenerators = map[string]func(w io.Writer) error{
	"bash": rootCmd.GenBashCompletion,
	"zsh":  rootCmd.GenZshCompletion,
	"fish": func(w io.Writer) error {
		return rootCmd.GenFishCompletion(w, true)
	},
	"powershell": rootCmd.GenPowerShellCompletionWithDesc,
}

// generateCompletion writes the completion script for shell to stdout
func generateCompletion(shell string) {
	gen, ok := completionGenerators[shell]
	if !ok {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Unsupported shell '%s'\n", shell)
		_, _ = fmt.Fprintln(deps.Stderr, "Supported shells: bash, zsh, fish, powershell")
		deps.Exit(1)
		return
	}

	if err := gen(deps.Stdout); err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Failed to generate %s completion: %v\n", shell, err)
		deps.Exit(1)
	}
}
