package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/dotgraph/pkg/observability"
)

var errFlaky = errors.New("flaky backend")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	testCacheContract(t, c)

	// Expired entries are misses and are removed
	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should be a miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry file should be removed")
	}

	// Corrupt entries are misses
	if err := c.Set(ctx, "bad", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after Clear: %d entries", len(entries))
	}
}

func TestFileCacheConcurrentSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "shared", []byte("same value"), time.Hour)
		}()
	}
	wg.Wait()

	data, hit, err := c.Get(ctx, "shared")
	if err != nil || !hit || string(data) != "same value" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	inner, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if Scoped(inner, "") != Cache(inner) {
		t.Error("Scoped with empty prefix should return inner")
	}

	a := Scoped(inner, "a:")
	b := Scoped(inner, "b:")
	if err := a.Set(ctx, "k", []byte("from a"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := b.Get(ctx, "k"); hit {
		t.Error("scopes should not share keys")
	}
	if data, hit, _ := inner.Get(ctx, "a:k"); !hit || string(data) != "from a" {
		t.Errorf("inner.Get(a:k) = %q, %v", data, hit)
	}
	testCacheContract(t, b)
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestArtifactKey(t *testing.T) {
	h := Hash([]byte("strict digraph g {\n}\n"))

	k1 := ArtifactKey(h, "dot", "svg", "exec")
	if k1 != ArtifactKey(h, "dot", "svg", "exec") {
		t.Error("ArtifactKey should be deterministic")
	}
	if !strings.HasPrefix(k1, "artifact:") {
		t.Errorf("ArtifactKey prefix: %s", k1)
	}

	others := []string{
		ArtifactKey(h, "neato", "svg", "exec"),
		ArtifactKey(h, "dot", "png", "exec"),
		ArtifactKey(Hash([]byte("other")), "dot", "svg", "exec"),
		ArtifactKey(h, "dot", "svg", "exec+warnings"),
		ArtifactKey(h, "dot", "svg", "wasm"),
		ArtifactKey(h, "dot", "svg", ""),
	}
	for _, k := range others {
		if k == k1 {
			t.Errorf("key collision: %s", k)
		}
	}
}

func TestKeyType(t *testing.T) {
	h := Hash(nil)
	tests := []struct {
		key, want string
	}{
		{ArtifactKey(h, "dot", "svg", "exec"), "artifact"},
		{"tenant:" + ArtifactKey(h, "dot", "png", "exec"), "artifact"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := keyType(tt.key); got != tt.want {
			t.Errorf("keyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestInstrument(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)

	ctx := context.Background()
	inner, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(inner)
	key := ArtifactKey(Hash([]byte("g")), "dot", "svg", "exec")

	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("<svg/>"), time.Hour)
	_, _, _ = c.Get(ctx, key)

	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 || hooks.bytes != 6 {
		t.Errorf("hooks = %+v, want 1 hit, 1 miss, 1 set of 6 bytes", *hooks)
	}
	if hooks.lastType != KeyTypeArtifact {
		t.Errorf("key type = %q, want %q", hooks.lastType, KeyTypeArtifact)
	}

	if _, ok := Instrument(NewNullCache()).(NullCache); !ok {
		t.Error("Instrument(NullCache) should return the null cache unchanged")
	}
}

func TestPing(t *testing.T) {
	defer func(d time.Duration) { connectDelay = d }(connectDelay)
	connectDelay = time.Millisecond
	ctx := context.Background()
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errFlaky}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, nil, 1, false},
		{"recovers from network error", 2, netErr, 3, false},
		{"gives up", 10, netErr, connectAttempts, true},
		{"final error not retried", 10, errFlaky, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := ping(ctx, "test", func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnavailable) {
				t.Errorf("error %v does not wrap ErrUnavailable", err)
			}
			if err != nil && !errors.Is(err, errFlaky) {
				t.Errorf("error %v lost its cause", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestPingContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ping(ctx, "test", func(context.Context) error {
		return &net.OpError{Op: "dial", Net: "tcp", Err: errFlaky}
	})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("ping() = %v, want ErrUnavailable wrapping context.Canceled", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("DOTGRAPH_TEST_REDIS")
	if addr == "" {
		t.Skip("DOTGRAPH_TEST_REDIS not set")
	}
	c, err := NewRedisCache(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCacheContract(t, Scoped(c, "dotgraph-test:"+Hash([]byte(t.Name()))[:8]+":"))
}

func TestRedisCacheUnavailable(t *testing.T) {
	defer func(d time.Duration) { connectDelay = d }(connectDelay)
	connectDelay = time.Millisecond

	_, err := NewRedisCache(context.Background(), "127.0.0.1:1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("DOTGRAPH_TEST_MONGO")
	if uri == "" {
		t.Skip("DOTGRAPH_TEST_MONGO not set")
	}
	c, err := NewMongoCache(context.Background(), uri, "dotgraph_test", "")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCacheContract(t, c)
}

// testCacheContract exercises the behavior every backend shares.
func testCacheContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v2" {
		t.Errorf("Get(k) = %q, %v, %v; want v2", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

type countingHooks struct {
	hits, misses, sets, bytes int
	lastType                  string
}

func (h *countingHooks) OnCacheHit(_ context.Context, kt string)  { h.hits++; h.lastType = kt }
func (h *countingHooks) OnCacheMiss(_ context.Context, kt string) { h.misses++; h.lastType = kt }
func (h *countingHooks) OnCacheSet(_ context.Context, kt string, n int) {
	h.sets++
	h.bytes += n
	h.lastType = kt
}
