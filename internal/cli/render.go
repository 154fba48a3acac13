package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/pkg/cache"
	"github.com/matzehuels/dotgraph/pkg/config"
	"github.com/matzehuels/dotgraph/pkg/errors"
	graphio "github.com/matzehuels/dotgraph/pkg/io"
	"github.com/matzehuels/dotgraph/pkg/pipeline"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string        // output file, base path for several formats, or "-" for stdout
	formats       string        // comma-separated output formats
	engine        string        // layout engine
	binDir        string        // directory holding the Graphviz executables
	timeout       time.Duration // per-invocation timeout
	inProcess     bool          // render with the embedded Graphviz library
	allowWarnings bool          // accept renderer diagnostics on success
	escape        bool          // quote and escape the emitted DOT
	noCache       bool          // disable the artifact cache
	refresh       bool          // skip cache reads
	watch         bool          // re-render when the input changes
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a graph document or DOT file",
		Long: `Render a graph document or DOT file with a Graphviz layout engine.

Graph documents (.json, .toml, .yaml) are emitted as DOT first; .gv and .dot
files are rendered as they are. Each requested format is rendered
concurrently and written next to the input unless --output is given:

  dotgraph render deps.json                 # deps.svg
  dotgraph render deps.json -f svg,png      # deps.svg, deps.png
  dotgraph render deps.json -o out/deps.pdf -f pdf
  dotgraph render deps.json -o - -f svg     # stdout

Rendered artifacts are cached by DOT content, engine and format.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(renderExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			cfg = opts.apply(cmd, cfg)
			return c.runRenderCommand(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (single format), base path (several), or "-" for stdout`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated (default from config, svg)")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "layout engine: "+engineList())
	cmd.Flags().StringVar(&opts.binDir, "bin-dir", "", "directory holding the Graphviz executables (default $PATH)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "timeout per render (default from config, 60s)")
	cmd.Flags().BoolVar(&opts.inProcess, "in-process", false, "render with the embedded Graphviz library (svg, png, jpg, dot)")
	cmd.Flags().BoolVar(&opts.allowWarnings, "allow-warnings", false, "accept renderer warnings on stderr")
	cmd.Flags().BoolVar(&opts.escape, "escape", false, "quote identifiers and escape attribute values")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render whenever the input file changes")

	_ = cmd.RegisterFlagCompletionFunc("engine", completeEngines)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// apply returns a copy of cfg with the flags the user set.
func (o renderOpts) apply(cmd *cobra.Command, cfg *config.Config) *config.Config {
	out := *cfg
	flags := cmd.Flags()
	if flags.Changed("engine") {
		out.Render.Engine = o.engine
	}
	if flags.Changed("bin-dir") {
		out.Render.BinDir = o.binDir
	}
	if flags.Changed("timeout") {
		out.Render.Timeout = o.timeout
	}
	if flags.Changed("in-process") {
		out.Render.InProcess = o.inProcess
	}
	if flags.Changed("allow-warnings") {
		out.Render.AllowWarnings = o.allowWarnings
	}
	return &out
}

func engineList() string {
	names := make([]string, len(render.Engines))
	for i, e := range render.Engines {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func (c *CLI) runRenderCommand(ctx context.Context, stdout io.Writer, input string, cfg *config.Config, opts renderOpts) error {
	popts := pipeline.Options{
		Engine:  render.Engine(cfg.Render.Engine),
		Formats: parseFormats(opts.formats, render.Format(cfg.Render.Format)),
		Escape:  opts.escape,
		Refresh: opts.refresh,
		Logger:  loggerFromContext(ctx),
	}
	if err := popts.Validate(); err != nil {
		return err
	}
	if _, err := outputPaths(input, opts.output, popts.Formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	out := newPrinter(stdout)
	var anim io.Writer = io.Discard
	if isTerminal(os.Stderr) {
		anim = os.Stderr
	}

	once := func() error {
		spin := startSpinner(ctx, anim, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
		result, paths, err := runRender(ctx, runner, stdout, input, opts.output, popts)
		spin.stop()
		if err != nil || opts.output == "-" {
			return err
		}
		out.success("Rendered %s with %s", input, popts.Engine)
		out.stats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
		for _, p := range paths {
			out.file(p)
		}
		return nil
	}

	if !opts.watch {
		return once()
	}

	if err := once(); err != nil {
		out.failure("%s", errors.UserMessage(err))
	}
	out.info("Watching %s (ctrl+c to stop)", input)
	return watchFile(ctx, input, func() {
		if err := once(); err != nil {
			out.failure("%s", errors.UserMessage(err))
		}
	})
}

// runRender loads input and renders it in every requested format, writing
// one file per format. It returns the pipeline result and the written paths.
func runRender(ctx context.Context, runner *pipeline.Runner, stdout io.Writer, input, output string, opts pipeline.Options) (*pipeline.Result, []string, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	opts.SetDefaults()

	paths, err := outputPaths(input, output, opts.Formats)
	if err != nil {
		return nil, nil, err
	}

	var result *pipeline.Result
	if isDOTFile(input) {
		text, rerr := os.ReadFile(input)
		if os.IsNotExist(rerr) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, rerr, "DOT file %s", input)
		}
		if rerr != nil {
			return nil, nil, rerr
		}
		if len(paths) == 1 && paths[0] != "-" {
			return renderDOTFile(ctx, runner, string(text), paths[0], opts, prog)
		}
		result, err = runner.RenderDOT(ctx, string(text), opts)
	} else {
		g, gerr := graphio.ImportFile(input)
		if gerr != nil {
			return nil, nil, gerr
		}
		logger.Debug("loaded graph", "file", input, "nodes", g.NodeCount(), "edges", g.EdgeCount())
		result, err = runner.Render(ctx, g, opts)
	}
	if err != nil {
		return nil, nil, err
	}

	for i, f := range opts.Formats {
		if err := writeArtifact(stdout, paths[i], result.Artifacts[f]); err != nil {
			return nil, nil, err
		}
	}
	prog.done("rendered", "input", input, "formats", len(opts.Formats))
	return result, paths, nil
}

// renderDOTFile renders DOT source straight to path through the renderer's
// file contract.
func renderDOTFile(ctx context.Context, runner *pipeline.Runner, text, path string, opts pipeline.Options, prog *progress) (*pipeline.Result, []string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	req := render.Request{DOT: text, OutputPath: path, Engine: opts.Engine, Format: opts.Formats[0]}
	hit, err := runner.RenderFile(ctx, req, opts.Refresh)
	if err != nil {
		return nil, nil, err
	}

	result := &pipeline.Result{DOT: text, DOTHash: cache.Hash([]byte(text))}
	result.CacheInfo.RenderHit = hit
	if hit {
		result.CacheInfo.Hits = opts.Formats
	}
	prog.done("rendered", "output", path, "formats", 1)
	return result, []string{path}, nil
}

func writeArtifact(stdout io.Writer, path string, data []byte) error {
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	}
	out, err := openOutput(stdout, path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// isDOTFile reports whether path names DOT source rather than a graph
// document.
func isDOTFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gv", ".dot":
		return true
	}
	return false
}

// outputPaths assigns an output path to each format, in order.
//
// A single format with an explicit output writes exactly there ("-" means
// stdout). Otherwise the files share a base path (output, or the input
// without its extension) and take the format's extension. Two formats
// mapping to the same file, or a path equal to the input, is an error.
func outputPaths(input, output string, formats []render.Format) ([]string, error) {
	if output == "-" {
		if len(formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidPath, "stdout output needs exactly one format, got %d", len(formats))
		}
		return []string{"-"}, nil
	}

	base := basePath(output, input, formats)
	paths := make([]string, len(formats))
	seen := make(map[string]render.Format, len(formats))
	for i, f := range formats {
		p := base + f.Ext()
		if len(formats) == 1 && output != "" {
			p = output
		}
		if prev, ok := seen[p]; ok {
			return nil, errors.New(errors.ErrCodeInvalidPath, "formats %s and %s would both write %s", prev, f, p)
		}
		if filepath.Clean(p) == filepath.Clean(input) {
			return nil, errors.New(errors.ErrCodeInvalidPath, "format %s would overwrite the input %s", f, input)
		}
		seen[p] = f
		paths[i] = p
	}
	return paths, nil
}

// basePath derives the base output path. An empty output strips the input's
// extension; an output ending in one of the formats' extensions is stripped.
func basePath(output, input string, formats []render.Format) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	for _, f := range formats {
		if strings.EqualFold(ext, f.Ext()) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty or "-", it returns stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(stdout io.Writer, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}
