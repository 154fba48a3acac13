package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dotgraph/pkg/cache"
	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/graph"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// fakeInvoker renders "<engine>/<format>:<dot>" and counts calls.
type fakeInvoker struct {
	mu    sync.Mutex
	calls int
	fail  render.Format
	empty bool   // succeed without producing output
	tag   string // cache tag
}

func (f *fakeInvoker) output(dot string, engine render.Engine, format render.Format) []byte {
	if f.empty {
		return nil
	}
	return []byte(fmt.Sprintf("%s/%s:%s", engine, format, dot))
}

func (f *fakeInvoker) CacheTag() string { return f.tag }

func (f *fakeInvoker) Render(ctx context.Context, req render.Request) error {
	data, err := f.RenderBytes(ctx, req.DOT, req.Engine, req.Format)
	if err != nil {
		return err
	}
	return os.WriteFile(req.OutputPath, data, 0o644)
}

func (f *fakeInvoker) RenderBytes(_ context.Context, dot string, engine render.Engine, format render.Format) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if format == f.fail {
		return nil, errors.Wrap(errors.ErrCodeRendererFailed, &render.RendererError{Engine: engine, Stderr: "boom"}, "render")
	}
	return f.output(dot, engine, format), nil
}

func (f *fakeInvoker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testGraph() *graph.Graph {
	g := graph.NewDirected("g")
	g.AddEdge("a", "b", graph.Key("k"), graph.KV("label", "A to B"))
	return g
}

func quiet() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

func newTestRunner(t *testing.T) (*Runner, *fakeInvoker) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inv := &fakeInvoker{}
	return NewRunner(c, inv, quiet()), inv
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"multiple formats", Options{Formats: []render.Format{"svg", "png:cairo"}}, ""},
		{"bad engine", Options{Engine: "/bin/dot"}, errors.ErrCodeInvalidEngine},
		{"bad format", Options{Formats: []render.Format{"svg png"}}, errors.ErrCodeInvalidFormat},
		{"duplicate format", Options{Formats: []render.Format{"svg", "svg"}}, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Validate() code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}

	var o Options
	o.SetDefaults()
	if o.Engine != render.EngineDot || len(o.Formats) != 1 || o.Formats[0] != "svg" || o.Logger == nil {
		t.Errorf("SetDefaults() = %+v", o)
	}
}

func TestRunnerRender(t *testing.T) {
	r, inv := newTestRunner(t)
	ctx := context.Background()
	g := testGraph()
	opts := Options{Engine: render.EngineNeato, Formats: []render.Format{"svg", "png"}}

	result, err := r.Render(ctx, g, opts)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	wantDOT := "strict digraph g {\n  a;\n  b;\n  // k\n  a -> b [label=\"A to B\"];\n}\n"
	if diff := cmp.Diff(wantDOT, result.DOT); diff != "" {
		t.Errorf("DOT mismatch (-want +got):\n%s", diff)
	}
	if result.DOTHash != cache.Hash([]byte(wantDOT)) {
		t.Errorf("DOTHash = %s", result.DOTHash)
	}
	for _, f := range opts.Formats {
		want := inv.output(wantDOT, render.EngineNeato, f)
		if diff := cmp.Diff(want, result.Artifacts[f]); diff != "" {
			t.Errorf("artifact %s mismatch (-want +got):\n%s", f, diff)
		}
	}
	if result.CacheInfo.RenderHit || len(result.CacheInfo.Hits) != 0 {
		t.Errorf("first run CacheInfo = %+v, want no hits", result.CacheInfo)
	}
	if result.Stats.NodeCount != 2 || result.Stats.EdgeCount != 1 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if inv.Calls() != 2 {
		t.Errorf("invoker calls = %d, want 2", inv.Calls())
	}

	// Second run is served from the cache
	again, err := r.Render(ctx, g, opts)
	if err != nil {
		t.Fatalf("second Render() error: %v", err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second run should hit the cache")
	}
	if diff := cmp.Diff([]render.Format{"svg", "png"}, again.CacheInfo.Hits); diff != "" {
		t.Errorf("Hits mismatch (-want +got):\n%s", diff)
	}
	if inv.Calls() != 2 {
		t.Errorf("invoker calls = %d after cached run, want 2", inv.Calls())
	}

	// Refresh bypasses reads
	opts.Refresh = true
	if _, err := r.Render(ctx, g, opts); err != nil {
		t.Fatal(err)
	}
	if inv.Calls() != 4 {
		t.Errorf("invoker calls = %d after refresh, want 4", inv.Calls())
	}
}

func TestRunnerCacheKeyIncludesEngine(t *testing.T) {
	r, inv := newTestRunner(t)
	ctx := context.Background()
	g := testGraph()

	if _, err := r.Render(ctx, g, Options{Engine: render.EngineDot}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Render(ctx, g, Options{Engine: render.EngineCirco})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit || inv.Calls() != 2 {
		t.Errorf("different engine reused cached artifact (calls=%d)", inv.Calls())
	}
}

func TestRunnerRenderFailure(t *testing.T) {
	r, inv := newTestRunner(t)
	inv.fail = "png"

	_, err := r.Render(context.Background(), testGraph(), Options{Formats: []render.Format{"svg", "png"}})
	if !errors.Is(err, errors.ErrCodeRendererFailed) {
		t.Fatalf("error = %v, want RENDERER_FAILED", err)
	}
	if !strings.Contains(err.Error(), "render png") {
		t.Errorf("error should name the failing format: %v", err)
	}
}

func TestRunnerEmitEscape(t *testing.T) {
	r, _ := newTestRunner(t)
	g := graph.NewDirected("my graph")
	g.AddNode("a", graph.KV("label", `say "hi"`))

	plain := r.Emit(context.Background(), g, Options{})
	escaped := r.Emit(context.Background(), g, Options{Escape: true})
	if !strings.Contains(plain, `label="say "hi""`) {
		t.Errorf("plain output should not escape:\n%s", plain)
	}
	if !strings.Contains(escaped, `label="say \"hi\""`) || !strings.Contains(escaped, `"my graph"`) {
		t.Errorf("escaped output:\n%s", escaped)
	}
}

func TestRunnerRenderDOT(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.RenderDOT(context.Background(), "digraph { x }", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(res.Artifacts["svg"]); got != "dot/svg:digraph { x }" {
		t.Errorf("artifact = %q", got)
	}
}

func TestRunnerRenderFile(t *testing.T) {
	r, inv := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()
	req := render.Request{DOT: "graph { a -- b }", OutputPath: filepath.Join(dir, "first.svg")}

	hit, err := r.RenderFile(ctx, req, false)
	if err != nil || hit {
		t.Fatalf("RenderFile() = %v, %v; want miss", hit, err)
	}

	req.OutputPath = filepath.Join(dir, "second.svg")
	hit, err = r.RenderFile(ctx, req, false)
	if err != nil || !hit {
		t.Fatalf("RenderFile() = %v, %v; want hit", hit, err)
	}
	if inv.Calls() != 1 {
		t.Errorf("invoker calls = %d, want 1", inv.Calls())
	}

	first, _ := os.ReadFile(filepath.Join(dir, "first.svg"))
	second, _ := os.ReadFile(filepath.Join(dir, "second.svg"))
	if string(first) != string(second) || len(first) == 0 {
		t.Errorf("cached file differs: %q vs %q", first, second)
	}

	if _, err := r.RenderFile(ctx, render.Request{DOT: "x"}, false); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing output path error = %v, want INVALID_PATH", err)
	}
}

func TestRunnerRenderFileRejectsEmptyOutput(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	req := render.Request{DOT: "digraph { a -> b }", OutputPath: filepath.Join(t.TempDir(), "g.svg")}

	broken := NewRunner(c, &fakeInvoker{empty: true}, quiet())
	if _, err := broken.RenderFile(ctx, req, false); !errors.Is(err, errors.ErrCodeRendererFailed) {
		t.Fatalf("empty output error = %v, want RENDERER_FAILED", err)
	}

	inv := &fakeInvoker{}
	hit, err := NewRunner(c, inv, quiet()).RenderFile(ctx, req, false)
	if err != nil || hit {
		t.Fatalf("RenderFile() after empty output = %v, %v; want miss", hit, err)
	}
	if inv.Calls() != 1 {
		t.Errorf("invoker calls = %d, want 1", inv.Calls())
	}
}

func TestRunnerEmptyArtifactNotCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := NewRunner(c, &fakeInvoker{empty: true}, quiet()).RenderDOT(ctx, "digraph { x }", Options{}); err != nil {
		t.Fatal(err)
	}
	inv := &fakeInvoker{}
	res, err := NewRunner(c, inv, quiet()).RenderDOT(ctx, "digraph { x }", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit || inv.Calls() != 1 {
		t.Errorf("empty artifact served from cache (calls=%d)", inv.Calls())
	}
}

func TestRunnerCacheSeparatesInvokers(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	dir := t.TempDir()
	req := render.Request{DOT: "digraph { a -> b }", OutputPath: filepath.Join(dir, "g.svg")}

	tests := []struct {
		tag     string
		wantHit bool
	}{
		{"wasm", false},
		{"exec", false},
		{"exec+warnings", false},
		{"exec", true},
	}
	invokers := map[string]*fakeInvoker{}
	for i, tt := range tests {
		inv, ok := invokers[tt.tag]
		if !ok {
			inv = &fakeInvoker{tag: tt.tag}
			invokers[tt.tag] = inv
		}
		hit, err := NewRunner(c, inv, quiet()).RenderFile(ctx, req, false)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, tt.tag, err)
		}
		if hit != tt.wantHit {
			t.Errorf("step %d (%s): hit = %v, want %v", i, tt.tag, hit, tt.wantHit)
		}
	}
	if n := invokers["exec"].Calls(); n != 1 {
		t.Errorf("exec invoker calls = %d, want 1", n)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()
	if r.Logger == nil || r.Invoker == nil || r.Cache == nil {
		t.Errorf("NewRunner(nil, nil, nil) = %+v", r)
	}
	if _, ok := r.Invoker.(*render.ExecInvoker); !ok {
		t.Errorf("default invoker = %T, want *render.ExecInvoker", r.Invoker)
	}
}
