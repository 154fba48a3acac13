package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/pkg/dot"
	"github.com/matzehuels/dotgraph/pkg/errors"
	graphio "github.com/matzehuels/dotgraph/pkg/io"
)

// convertCommand creates the convert command for rewriting graph documents.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output string
		escape bool
	)

	cmd := &cobra.Command{
		Use:   "convert [graph-file]",
		Short: "Convert a graph document to JSON or DOT",
		Long: `Convert a graph document between formats.

The input may be JSON, TOML or YAML. The output format follows the --output
extension: .json writes a normalized JSON document, .gv or .dot writes DOT.
Without --output the JSON document is written to stdout.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(documentExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd.OutOrStdout(), args[0], output, escape)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json, .gv or .dot; default stdout as JSON)")
	cmd.Flags().BoolVar(&escape, "escape", false, "escape DOT output (only with a .gv or .dot output)")

	return cmd
}

func runConvert(ctx context.Context, stdout io.Writer, input, output string, escape bool) error {
	logger := loggerFromContext(ctx)

	g, err := graphio.ImportFile(input)
	if err != nil {
		return err
	}
	logger.Debug("loaded graph", "file", input, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	if output == "" || output == "-" {
		return graphio.WriteJSON(stdout, g)
	}
	if filepath.Clean(output) == filepath.Clean(input) {
		return errors.New(errors.ErrCodeInvalidPath, "output would overwrite the input %s", input)
	}

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".json":
		err = graphio.ExportJSON(output, g)
	case ".gv", ".dot":
		err = graphio.ExportDOT(output, g, dot.Options{Escape: escape})
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported output extension %q (must be .json, .gv or .dot)", ext)
	}
	if err != nil {
		return err
	}
	newPrinter(stdout).file(output)
	return nil
}
