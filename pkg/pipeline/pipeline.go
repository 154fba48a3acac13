// Package pipeline provides the emit → render pipeline shared by the CLI and
// the HTTP API.
//
// By centralizing this logic, both entry points get the same caching,
// logging and observability behavior.
//
// # Stages
//
//  1. Emit: serialize a [graph.Graph] to DOT text
//  2. Render: run a [render.Invoker] once per requested format, concurrently,
//     consulting the artifact cache first
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, render.NewExecInvoker(cfg, logger), logger)
//	result, err := runner.Render(ctx, g, pipeline.Options{
//	    Engine:  render.EngineDot,
//	    Formats: []render.Format{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// Options configures a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Engine  render.Engine   `json:"engine,omitempty"`
	Formats []render.Format `json:"formats,omitempty"`
	Escape  bool            `json:"escape,omitempty"`  // Quote and escape DOT output
	Refresh bool            `json:"refresh,omitempty"` // Skip cache reads, still write

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills in the engine, formats and logger when unset.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = render.DefaultEngine
	}
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks engine and formats.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := errors.ValidateEngine(string(o.Engine)); err != nil {
		return err
	}
	seen := make(map[render.Format]bool, len(o.Formats))
	for _, f := range o.Formats {
		if err := errors.ValidateFormat(string(f)); err != nil {
			return err
		}
		if seen[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "format %q requested twice", f)
		}
		seen[f] = true
	}
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DOT is the emitted DOT text.
	DOT string

	// DOTHash is the content hash of DOT, used in cache keys.
	DOTHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	EmitTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for a run.
type CacheInfo struct {
	Hits      []render.Format // Formats served from the cache
	RenderHit bool            // Whether all artifacts came from cache
}
