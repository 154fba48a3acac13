package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	graphio "github.com/matzehuels/dotgraph/pkg/io"
	"github.com/matzehuels/dotgraph/pkg/pipeline"
)

// dotCommand creates the dot command for emitting DOT text.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output string
		escape bool
	)

	cmd := &cobra.Command{
		Use:   "dot [graph-file]",
		Short: "Emit a graph document as DOT",
		Long: `Emit a graph document as DOT.

The graph file may be JSON, TOML or YAML (chosen by extension). The DOT text
is written to stdout unless --output names a file.

By default attribute values are only wrapped in double quotes. Use --escape
to quote identifiers and escape values when the graph holds untrusted text.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(documentExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDOT(cmd.Context(), cmd.OutOrStdout(), args[0], output, escape)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&escape, "escape", false, "quote identifiers and escape attribute values")

	return cmd
}

func runDOT(ctx context.Context, stdout io.Writer, input, output string, escape bool) error {
	logger := loggerFromContext(ctx)

	g, err := graphio.ImportFile(input)
	if err != nil {
		return err
	}
	logger.Debug("loaded graph", "file", input, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	runner := pipeline.NewRunner(nil, nil, logger)
	defer runner.Close()
	text := runner.Emit(ctx, g, pipeline.Options{Escape: escape})

	out, err := openOutput(stdout, output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.WriteString(out, text); err != nil {
		return err
	}
	if output != "" {
		newPrinter(stdout).file(output)
	}
	return nil
}
