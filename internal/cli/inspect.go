package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/pkg/graph"
	graphio "github.com/matzehuels/dotgraph/pkg/io"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain  bool
		sortBy string
	)

	cmd := &cobra.Command{
		Use:   "inspect [graph-file]",
		Short: "Show node degrees and adjacent edges",
		Long: `Show the shape of a graph document: node and edge counts, self-loops,
keyed edges and per-node degrees.

On a terminal this opens an interactive node browser. Use --plain (or pipe
the output) for a static table.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(documentExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseSortKey(sortBy)
			if err != nil {
				return err
			}
			g, err := graphio.ImportFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if plain || !isTerminal(out) {
				printSummary(out, graph.Summarize(g), key)
				return nil
			}
			return runInspectTUI(cmd.Context(), g, key)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a static table instead of the interactive browser")
	cmd.Flags().StringVar(&sortBy, "sort", "insertion", "node order: insertion, degree, in-degree, out-degree, id")
	_ = cmd.RegisterFlagCompletionFunc("sort", completeSortKeys)

	return cmd
}

func parseSortKey(s string) (sortKey, error) {
	for k := sortKey(0); k < numSortKeys; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid sort order: %s (must be insertion, degree, in-degree, out-degree or id)", s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func runInspectTUI(ctx context.Context, g *graph.Graph, key sortKey) error {
	m := NewNodeTableModel(g)
	m.Sort = key
	m.Rows = sortNodes(m.Summary.Nodes, key)

	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// printSummary writes the graph counts and the node table to w.
func printSummary(w io.Writer, s graph.Summary, key sortKey) {
	fmt.Fprintln(w, StyleTitle.Render(graphTitle(s)))
	fmt.Fprintln(w)
	for _, kv := range [][2]string{
		{"Self-loops", fmt.Sprint(s.SelfLoops)},
		{"Keyed edges", fmt.Sprint(s.Keyed)},
		{"Isolated", fmt.Sprint(s.Isolated)},
	} {
		fmt.Fprintln(w, formatKeyValue(kv[0], kv[1]))
	}
	if len(s.Nodes) > 0 {
		fmt.Fprintln(w, nodeTable(sortNodes(s.Nodes, key), -1).Render())
	}
}
