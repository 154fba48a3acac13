package render

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/dotgraph/pkg/errors"
)

// Engine names a Graphviz layout program.
type Engine string

// Layout engines shipped with Graphviz. Other names are passed through.
const (
	EngineDot       Engine = "dot"
	EngineNeato     Engine = "neato"
	EngineFdp       Engine = "fdp"
	EngineSfdp      Engine = "sfdp"
	EngineTwopi     Engine = "twopi"
	EngineCirco     Engine = "circo"
	EngineOsage     Engine = "osage"
	EnginePatchwork Engine = "patchwork"
)

// DefaultEngine is used when a request names no engine.
const DefaultEngine = EngineDot

// Engines lists the known layout engines, default first.
var Engines = []Engine{
	EngineDot, EngineNeato, EngineFdp, EngineSfdp,
	EngineTwopi, EngineCirco, EngineOsage, EnginePatchwork,
}

// Format is a Graphviz output format, optionally with renderer and library
// selectors ("png:cairo:gd").
type Format string

// DefaultFormat is used when a request names no format.
const DefaultFormat Format = "svg"

// Base returns the format without renderer and library selectors.
func (f Format) Base() string {
	base, _, _ := strings.Cut(string(f), ":")
	return base
}

// Ext returns the conventional file extension for the format, including the
// leading dot.
func (f Format) Ext() string {
	switch b := f.Base(); b {
	case "dot", "gv", "xdot", "canon":
		return ".gv"
	case "jpeg":
		return ".jpg"
	default:
		return "." + b
	}
}

// MediaType returns the HTTP content type for rendered output in format f.
func (f Format) MediaType() string {
	switch f.Base() {
	case "svg", "svgz":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "pdf":
		return "application/pdf"
	case "json", "json0", "dot_json", "xdot_json":
		return "application/json"
	case "dot", "gv", "xdot", "canon":
		return "text/vnd.graphviz"
	case "plain", "plain-ext":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// DefaultTimeout bounds a single renderer invocation when Config.Timeout is
// not set.
const DefaultTimeout = 60 * time.Second

// Config configures how renderers are located and run.
type Config struct {
	// BinDir is the directory holding the Graphviz executables. When empty,
	// engines are looked up on $PATH.
	BinDir string

	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// AllowWarnings accepts a successful exit status even when the renderer
	// wrote diagnostics to stderr; they are logged instead. By default any
	// diagnostic output fails the render.
	AllowWarnings bool
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Request describes one render.
type Request struct {
	DOT        string // DOT source
	OutputPath string // Target file
	Engine     Engine // Layout engine; DefaultEngine when empty
	Format     Format // Output format; DefaultFormat when empty
}

// WithDefaults returns a copy of r with empty Engine and Format filled in.
func (r Request) WithDefaults() Request {
	if r.Engine == "" {
		r.Engine = DefaultEngine
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	return r
}

// Validate checks the request after defaults are applied.
func (r Request) Validate() error {
	if err := errors.ValidateOutputPath(r.OutputPath); err != nil {
		return err
	}
	if err := errors.ValidateEngine(string(r.Engine)); err != nil {
		return err
	}
	return errors.ValidateFormat(string(r.Format))
}

// Invoker renders DOT text with a layout engine.
type Invoker interface {
	// Render writes the rendered output to req.OutputPath.
	Render(ctx context.Context, req Request) error

	// RenderBytes returns the rendered output instead of writing a file.
	RenderBytes(ctx context.Context, dot string, engine Engine, format Format) ([]byte, error)
}

// CacheTagger is implemented by invokers whose output depends on more than
// the DOT text, engine and format. Artifacts with different tags never share
// a cache entry.
type CacheTagger interface {
	CacheTag() string
}

// CacheTag returns inv's tag, or "" when inv does not implement [CacheTagger].
func CacheTag(inv Invoker) string {
	if t, ok := inv.(CacheTagger); ok {
		return t.CacheTag()
	}
	return ""
}
