package cache

import (
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

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "doc:1"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "doc:1", []byte(`["a.png"]`), TTLDocument); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "doc:1")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v", hit, err)
	}
	if string(data) != `["a.png"]` {
		t.Errorf("Get data = %s", data)
	}

	if err := c.Delete(ctx, "doc:1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "doc:1"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "doc:1"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}

	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("Dir() mismatch")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	fc := c.(*FileCache)

	for _, key := range []string{"doc:1", "doc:2", "doc:3"} {
		if err := c.Set(ctx, key, []byte("x"), TTLDocument); err != nil {
			t.Fatal(err)
		}
	}
	n, err := fc.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "doc:2"); hit {
		t.Error("Get after Clear should miss")
	}
	if n, _ := fc.Clear(); n != 0 {
		t.Errorf("second Clear removed %d entries", n)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fc := c.(*FileCache)

	path := fc.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
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

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice.psd")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile error: %v", err)
	}
	if got != Hash([]byte("hello")) {
		t.Errorf("HashFile = %s, want Hash of contents", got)
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("HashFile of missing file should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := DocumentKeyOpts{Document: "alice", OutputDir: "/out", Bounds: "origin", Compression: "default"}
	k1 := k.DocumentKey("psd1", "json1", base)

	if !strings.HasPrefix(k1, "doc:") {
		t.Errorf("DocumentKey should be prefixed: %s", k1)
	}
	if k1 != k.DocumentKey("psd1", "json1", base) {
		t.Error("DocumentKey should be deterministic")
	}

	variants := []struct {
		name string
		key  string
	}{
		{"document", k.DocumentKey("psd2", "json1", base)},
		{"descriptor", k.DocumentKey("psd1", "json2", base)},
		{"bounds", k.DocumentKey("psd1", "json1", DocumentKeyOpts{Document: "alice", OutputDir: "/out", Bounds: "tight", Compression: "default"})},
		{"output", k.DocumentKey("psd1", "json1", DocumentKeyOpts{Document: "alice", OutputDir: "/other", Bounds: "origin", Compression: "default"})},
		{"name", k.DocumentKey("psd1", "json1", DocumentKeyOpts{Document: "alicia", OutputDir: "/out", Bounds: "origin", Compression: "default"})},
		{"duplicates", k.DocumentKey("psd1", "json1", DocumentKeyOpts{Document: "alice", OutputDir: "/out", Bounds: "origin", Compression: "default", AllowDuplicates: true})},
	}
	for _, v := range variants {
		if v.key == k1 {
			t.Errorf("changing %s should change the key", v.name)
		}
	}
}
