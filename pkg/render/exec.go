package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/observability"
)

// installHint is appended to EXECUTABLE_NOT_FOUND errors.
const installHint = "Install Graphviz with:\n  macOS:  brew install graphviz\n  Linux:  apt install graphviz\nor point render.bin_dir (--bin-dir) at the directory holding the engines"

// RendererError carries the diagnostic output of a renderer that ran but
// failed. Stderr is kept verbatim.
type RendererError struct {
	Engine Engine
	Stderr string
	Err    error // exit status, or nil when the renderer only wrote diagnostics
}

func (e *RendererError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	switch {
	case e.Err != nil && msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Engine, e.Err, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Engine, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Engine, msg)
	}
}

func (e *RendererError) Unwrap() error { return e.Err }

// ExecInvoker renders by running Graphviz executables.
//
// ExecInvoker holds no per-render state and is safe for concurrent use.
type ExecInvoker struct {
	cfg    Config
	logger *log.Logger
}

// NewExecInvoker creates an invoker. A nil logger uses log.Default().
func NewExecInvoker(cfg Config, logger *log.Logger) *ExecInvoker {
	if logger == nil {
		logger = log.Default()
	}
	return &ExecInvoker{cfg: cfg, logger: logger}
}

// Executable resolves the path of the program for engine.
func (x *ExecInvoker) Executable(engine Engine) (string, error) {
	if err := errors.ValidateEngine(string(engine)); err != nil {
		return "", err
	}

	if x.cfg.BinDir == "" {
		path, err := exec.LookPath(string(engine))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeExecutableNotFound, err,
				"graphviz engine %q not found on PATH. %s", engine, installHint)
		}
		return path, nil
	}

	path := filepath.Join(x.cfg.BinDir, string(engine))
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecutableNotFound, err,
			"graphviz engine %q not found in %s. %s", engine, x.cfg.BinDir, installHint)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", errors.New(errors.ErrCodeExecutableNotFound,
			"%s is not an executable file. %s", path, installHint)
	}
	return path, nil
}

// Render runs `<engine> -T<format> -o <output>` with req.DOT on stdin.
func (x *ExecInvoker) Render(ctx context.Context, req Request) error {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return err
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, string(req.Engine), string(req.Format))
	_, err := x.run(ctx, req.Engine, req.DOT, "-T"+string(req.Format), "-o", req.OutputPath)
	observability.Render().OnRenderComplete(ctx, string(req.Engine), string(req.Format), time.Since(start), err)
	if err != nil {
		return err
	}

	x.logger.Debug("rendered", "engine", req.Engine, "format", req.Format, "output", req.OutputPath, "duration", time.Since(start))
	return nil
}

// CacheTag separates artifacts accepted under AllowWarnings from strict ones.
func (x *ExecInvoker) CacheTag() string {
	if x.cfg.AllowWarnings {
		return "exec+warnings"
	}
	return "exec"
}

// RenderBytes runs `<engine> -T<format>` and returns what it writes to stdout.
func (x *ExecInvoker) RenderBytes(ctx context.Context, dot string, engine Engine, format Format) ([]byte, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	if format == "" {
		format = DefaultFormat
	}
	if err := errors.ValidateFormat(string(format)); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, string(engine), string(format))
	out, err := x.run(ctx, engine, dot, "-T"+string(format))
	observability.Render().OnRenderComplete(ctx, string(engine), string(format), time.Since(start), err)
	return out, err
}

func (x *ExecInvoker) run(ctx context.Context, engine Engine, dot string, args ...string) ([]byte, error) {
	path, err := x.Executable(engine)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, x.cfg.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(dot)
	cmd.WaitDelay = time.Second

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	x.logger.Debug("running renderer", "path", path, "args", args)

	if err := cmd.Run(); err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "%s did not finish within %s", engine, x.cfg.timeout())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rerr := &RendererError{Engine: engine, Stderr: errBuf.String(), Err: err}
		return nil, errors.Wrap(errors.ErrCodeRendererFailed, rerr, "render with %s", engine)
	}

	if errBuf.Len() > 0 {
		if !x.cfg.AllowWarnings {
			rerr := &RendererError{Engine: engine, Stderr: errBuf.String()}
			return nil, errors.Wrap(errors.ErrCodeRendererFailed, rerr, "render with %s", engine)
		}
		x.logger.Warn("renderer diagnostics", "engine", engine, "stderr", strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

var _ Invoker = (*ExecInvoker)(nil)
