package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

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

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// backends returns every local backend plus redis and mongo when REDIS_URL
// or MONGO_URI point at a server.
func backends(t *testing.T) map[string]Cache {
	t.Helper()

	file, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem, err := NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	db, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}

	all := map[string]Cache{"file": file, "memory": mem, "sqlite": db}
	t.Cleanup(func() {
		for _, c := range []Cache{file, mem, db} {
			c.Close()
		}
	})
	for name, c := range remoteBackends(t) {
		all[name] = c
	}
	return all
}

func TestBackends_GetSetDelete(t *testing.T) {
	ctx := context.Background()

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := []byte(`{"coordinates":"pkg:maven/g/a@1.0","vulnerabilities":[]}`)
			if err := c.Set(ctx, "report:a", want, time.Hour); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}

			got, hit, err := c.Get(ctx, "report:a")
			if err != nil || !hit {
				t.Fatalf("Get() = %v, %v; want hit", hit, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Get() = %q, want %q", got, want)
			}

			if err := c.Set(ctx, "report:a", []byte("v2"), 0); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _, _ = c.Get(ctx, "report:a")
			if string(got) != "v2" {
				t.Errorf("after overwrite Get() = %q, want %q", got, "v2")
			}

			if err := c.Delete(ctx, "report:a"); err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if _, hit, _ := c.Get(ctx, "report:a"); hit {
				t.Error("Get() hit after Delete()")
			}
			if err := c.Delete(ctx, "never-set"); err != nil {
				t.Errorf("Delete() of missing key = %v, want nil", err)
			}
		})
	}
}

func TestBackends_Expiration(t *testing.T) {
	ctx := context.Background()

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			if _, hit, _ := c.Get(ctx, "short"); !hit {
				t.Fatal("fresh entry should hit")
			}

			time.Sleep(25 * time.Millisecond)

			if _, hit, err := c.Get(ctx, "short"); hit || err != nil {
				t.Errorf("expired Get() = %v, %v; want miss without error", hit, err)
			}
		})
	}
}

func TestFileCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path := c.path("broken")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "broken"); hit || err != nil {
		t.Errorf("Get() = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir still has %d entries", len(entries))
	}
}

func TestMemoryCache_Bounded(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("least recently used entry should be evicted")
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(4)
	buf := []byte("original")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'X'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("Get() = %q, want stored copy %q", got, "original")
	}
}

func TestSQLiteCache_PruneAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	c, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "keep", []byte(strings.Repeat("keep", 100)), 0)
	_ = c.Set(ctx, "drop", []byte("drop"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	reopened, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, hit, err := reopened.Get(ctx, "keep")
	if err != nil || !hit {
		t.Fatalf("Get() after reopen = %v, %v; want hit", hit, err)
	}
	if len(got) != 400 {
		t.Errorf("decompressed length = %d, want 400", len(got))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Backend: BackendNone}, false},
		{Config{Backend: "", Dir: dir}, false},
		{Config{Backend: BackendFile, Dir: dir}, false},
		{Config{Backend: BackendSQLite, Dir: dir}, false},
		{Config{Backend: BackendMemory}, false},
		{Config{Backend: BackendFile}, true},
		{Config{Backend: BackendRedis}, true},
		{Config{Backend: BackendMongo}, true},
		{Config{Backend: "memcached"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			c, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	httpKey := k.HTTPKey("maven", "org.example:lib:1.0")
	if httpKey != "http:maven:org.example:lib:1.0" {
		t.Errorf("HTTPKey unexpected: %s", httpKey)
	}

	rk1 := k.ReportKey("maven", "pkg:maven/Org.Example/lib@1.0")
	rk2 := k.ReportKey("maven", "pkg:maven/org.example/lib@1.0")
	if rk1 != rk2 {
		t.Error("ReportKey should ignore purl case")
	}
	if rk1 == k.ReportKey("maven", "pkg:maven/org.example/lib@1.1") {
		t.Error("Different versions should produce different keys")
	}
	if !strings.HasPrefix(rk1, "report:maven:") {
		t.Errorf("ReportKey should be namespaced: %s", rk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")

	httpKey := scoped.HTTPKey("maven", "g:a:1")
	if httpKey != "user:123:http:maven:g:a:1" {
		t.Errorf("ScopedKeyer HTTPKey unexpected: %s", httpKey)
	}

	reportKey := scoped.ReportKey("maven", "pkg:maven/g/a@1")
	if !strings.HasPrefix(reportKey, "user:123:report:") {
		t.Errorf("ScopedKeyer ReportKey should be prefixed: %s", reportKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.HTTPKey("test", "key")
	if key != "prefix:http:test:key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestNoClose(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache(4)
	if err != nil {
		t.Fatal(err)
	}
	_ = mem.Set(ctx, "k", []byte("v"), 0)

	shared := NoClose(mem)
	if err := shared.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}
	if _, hit, _ := mem.Get(ctx, "k"); !hit {
		t.Error("NoClose must not close the wrapped cache")
	}
	if _, hit, _ := shared.Get(ctx, "k"); !hit {
		t.Error("NoClose should delegate Get")
	}
}
