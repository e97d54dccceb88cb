package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/tabula/pkg/cache"
)

func TestCacheClear(t *testing.T) {
	c, _ := newTestCLI(t)

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := run(c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n, _ := fc.Len(); n != 0 {
		t.Errorf("%d entries left after clear", n)
	}
}

func TestCachePath(t *testing.T) {
	c, out := newTestCLI(t)
	if err := run(c, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want, _ := cacheDir()
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCachePathFromConfig(t *testing.T) {
	c, out := newTestCLI(t)
	dir := filepath.Join(t.TempDir(), "entries")
	cfgPath := writeConfig(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	if err := run(c, "--config", cfgPath, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.ToSlash(dir) {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}

func TestCachePathOtherBackend(t *testing.T) {
	c, out := newTestCLI(t)
	cfgPath := writeConfig(t, "[cache]\nbackend = \"none\"\n")

	if err := run(c, "--config", cfgPath, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("cache path printed %q for the none backend", out.String())
	}
}

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

