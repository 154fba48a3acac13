package render

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/observability"
)

// inProcessFormats are the output formats go-graphviz can produce.
var inProcessFormats = map[string]graphviz.Format{
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
	"jpg": graphviz.JPG,
	"dot": graphviz.XDOT,
}

// GraphvizInvoker renders in-process with the WebAssembly build of Graphviz
// bundled in go-graphviz. Renderer and library selectors in the format are
// ignored.
type GraphvizInvoker struct {
	logger *log.Logger
}

// NewGraphvizInvoker creates an in-process invoker. A nil logger uses
// log.Default().
func NewGraphvizInvoker(logger *log.Logger) *GraphvizInvoker {
	if logger == nil {
		logger = log.Default()
	}
	return &GraphvizInvoker{logger: logger}
}

// Render writes the rendered output to req.OutputPath. The WebAssembly
// runtime cannot reach the host filesystem, so output is rendered into memory
// and written from the host side.
func (g *GraphvizInvoker) Render(ctx context.Context, req Request) error {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return err
	}

	data, err := g.RenderBytes(ctx, req.DOT, req.Engine, req.Format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(req.OutputPath, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", req.OutputPath)
	}
	return nil
}

// CacheTag identifies artifacts produced by the in-process renderer.
func (g *GraphvizInvoker) CacheTag() string { return "wasm" }

// RenderBytes returns the rendered output.
func (g *GraphvizInvoker) RenderBytes(ctx context.Context, dot string, engine Engine, format Format) ([]byte, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	if format == "" {
		format = DefaultFormat
	}

	var buf bytes.Buffer
	start := time.Now()
	observability.Render().OnRenderStart(ctx, string(engine), string(format))
	err := g.render(ctx, dot, engine, format, &buf)
	if err == nil && buf.Len() == 0 {
		rerr := &RendererError{Engine: engine, Stderr: "no output produced"}
		err = errors.Wrap(errors.ErrCodeRendererFailed, rerr, "render with %s", engine)
	}
	observability.Render().OnRenderComplete(ctx, string(engine), string(format), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *GraphvizInvoker) render(ctx context.Context, dot string, engine Engine, format Format, w io.Writer) error {
	if err := errors.ValidateEngine(string(engine)); err != nil {
		return err
	}
	f, ok := inProcessFormats[format.Base()]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported,
			"format %q is not available in-process (supported: svg, png, jpg, dot)", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		rerr := &RendererError{Engine: engine, Stderr: err.Error()}
		return errors.Wrap(errors.ErrCodeRendererFailed, rerr, "parse DOT")
	}
	defer parsed.Close()

	gv.SetLayout(graphviz.Layout(engine))
	if err := gv.Render(ctx, parsed, f, w); err != nil {
		rerr := &RendererError{Engine: engine, Stderr: err.Error(), Err: err}
		return errors.Wrap(errors.ErrCodeRendererFailed, rerr, "render with %s", engine)
	}

	g.logger.Debug("rendered in-process", "engine", engine, "format", f)
	return nil
}

var _ Invoker = (*GraphvizInvoker)(nil)
