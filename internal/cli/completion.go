package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dotgraph.

Bash:
  $ source <(dotgraph completion bash)

Zsh:
  $ dotgraph completion zsh > "${fpath[1]}/_dotgraph"

Fish:
  $ dotgraph completion fish > ~/.config/fish/completions/dotgraph.fish

PowerShell:
  PS> dotgraph completion powershell | Out-String | Invoke-Expression
`,
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
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// Extensions offered when completing an input file argument.
var (
	documentExts = []string{"json", "toml", "yaml", "yml"}
	renderExts   = []string{"json", "toml", "yaml", "yml", "gv", "dot"}
)

// completeFiles completes the single positional argument with files of the
// given extensions.
func completeFiles(exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// commonFormats are suggested for --format; any Graphviz format is accepted.
var commonFormats = []string{"svg", "png", "pdf", "jpg", "dot", "xdot", "json", "plain"}

func completeEngines(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(render.Engines))
	for i, e := range render.Engines {
		names[i] = string(e)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats suggests formats for the last entry of a comma-separated
// list, keeping the entries already typed.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndexByte(toComplete, ','); i >= 0 {
		prefix = toComplete[:i+1]
	}
	out := make([]string, len(commonFormats))
	for i, f := range commonFormats {
		out[i] = prefix + f
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeSortKeys(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	keys := make([]string, 0, numSortKeys)
	for k := sortKey(0); k < numSortKeys; k++ {
		keys = append(keys, k.String())
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}
