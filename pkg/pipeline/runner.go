package pipeline

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dotgraph/pkg/cache"
	"github.com/matzehuels/dotgraph/pkg/dot"
	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/graph"
	"github.com/matzehuels/dotgraph/pkg/observability"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, invoker and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Invoker render.Invoker
	Logger  *log.Logger
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If inv is nil, an ExecInvoker with default settings is used.
func NewRunner(c cache.Cache, inv render.Invoker, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if inv == nil {
		inv = render.NewExecInvoker(render.Config{}, logger)
	}
	return &Runner{
		Cache:   cache.Instrument(c),
		Invoker: inv,
		Logger:  logger,
	}
}

// Emit serializes g to DOT and reports the emission to the render hooks.
func (r *Runner) Emit(ctx context.Context, g *graph.Graph, opts Options) string {
	r.applyLogger(&opts)
	start := time.Now()
	text := dot.RenderWith(g, dot.Options{Escape: opts.Escape})
	elapsed := time.Since(start)

	observability.Render().OnEmit(ctx, g.NodeCount(), g.EdgeCount(), len(text), elapsed)
	opts.Logger.Debug("emitted DOT",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"bytes", len(text),
		"duration", elapsed)
	return text
}

// Render emits g and renders it in every requested format.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	start := time.Now()
	result.DOT = r.Emit(ctx, g, opts)
	result.Stats.EmitTime = time.Since(start)

	if err := r.renderDOT(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// RenderDOT renders DOT text that was produced elsewhere.
func (r *Runner) RenderDOT(ctx context.Context, text string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	result := &Result{DOT: text}
	if err := r.renderDOT(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) renderDOT(ctx context.Context, result *Result, opts Options) error {
	start := time.Now()
	result.DOTHash = cache.Hash([]byte(result.DOT))
	result.Artifacts = make(map[render.Format][]byte, len(opts.Formats))

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		eg.Go(func() error {
			data, hit, err := r.renderFormat(ctx, result.DOT, result.DOTHash, format, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			defer mu.Unlock()
			result.Artifacts[format] = data
			if hit {
				result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	slices.SortFunc(result.CacheInfo.Hits, func(a, b render.Format) int {
		return slices.Index(opts.Formats, a) - slices.Index(opts.Formats, b)
	})
	result.CacheInfo.RenderHit = len(result.CacheInfo.Hits) == len(opts.Formats)
	result.Stats.RenderTime = time.Since(start)

	opts.Logger.Info("rendered outputs",
		"engine", opts.Engine,
		"formats", opts.Formats,
		"cached", len(result.CacheInfo.Hits),
		"duration", result.Stats.RenderTime)
	return nil
}

// renderFormat returns one artifact, from the cache when possible.
func (r *Runner) renderFormat(ctx context.Context, text, hash string, format render.Format, opts Options) ([]byte, bool, error) {
	key := cache.ArtifactKey(hash, string(opts.Engine), string(format), render.CacheTag(r.Invoker))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			opts.Logger.Debug("artifact cache hit", "format", format)
			return data, true, nil
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "format", format, "err", err)
		}
	}

	data, err := r.Invoker.RenderBytes(ctx, text, opts.Engine, format)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, key, data, opts.Logger, "format", format)
	return data, false, nil
}

// RenderFile renders req.DOT to req.OutputPath through the invoker's file
// contract, serving it from the cache when the same DOT, engine and format
// were rendered before by the same kind of invoker. It reports whether the
// cache was hit. An empty output file is an error and is never cached.
func (r *Runner) RenderFile(ctx context.Context, req render.Request, refresh bool) (bool, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return false, err
	}
	key := cache.ArtifactKey(cache.Hash([]byte(req.DOT)), string(req.Engine), string(req.Format), render.CacheTag(r.Invoker))

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit && len(data) > 0 {
			if err := os.WriteFile(req.OutputPath, data, 0o644); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if err := r.Invoker.Render(ctx, req); err != nil {
		return false, err
	}

	data, err := os.ReadFile(req.OutputPath)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeRendererFailed, err, "read rendered %s", req.OutputPath)
	}
	if len(data) == 0 {
		return false, errors.New(errors.ErrCodeRendererFailed, "%s renderer wrote an empty %s", req.Engine, req.OutputPath)
	}
	r.store(ctx, key, data, r.Logger, "output", req.OutputPath)
	return false, nil
}

// store caches a rendered artifact. Empty artifacts are skipped.
func (r *Runner) store(ctx context.Context, key string, data []byte, logger *log.Logger, keyvals ...any) {
	if len(data) == 0 {
		logger.Warn("not caching empty artifact", keyvals...)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		logger.Warn("cache write failed", append(keyvals, "err", err)...)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
