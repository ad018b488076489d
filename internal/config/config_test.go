package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/crewboard/pkg/layout"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	return dir
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty for defaults", cfg.Path)
	}
	if cfg.Layout.Spacing != layout.DefaultOptions() {
		t.Errorf("Spacing = %+v, want defaults", cfg.Layout.Spacing)
	}
	if want := filepath.Join(dir, "data", "crewboard", "diagrams"); cfg.Store.Dir != want {
		t.Errorf("Store.Dir = %q, want %q", cfg.Store.Dir, want)
	}
	if want := filepath.Join(dir, "cache", "crewboard"); cfg.Cache.Dir != want {
		t.Errorf("Cache.Dir = %q, want %q", cfg.Cache.Dir, want)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q, want :8000", cfg.Server.Addr)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("Load() of a missing explicit file should fail")
	}
}

func TestLoadDefaultPath(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, filepath.Join(dir, "config", "crewboard", "config.toml"), `
[layout]
canvas_width = 1600.0
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.CanvasWidth != 1600 {
		t.Errorf("CanvasWidth = %v, want 1600", cfg.Layout.CanvasWidth)
	}
	if !strings.HasSuffix(cfg.Path, filepath.Join("crewboard", "config.toml")) {
		t.Errorf("Path = %q", cfg.Path)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "crewboard.toml")
	writeConfig(t, path, `
[layout]
viz_type = "nodelink"
detailed = true

[layout.spacing]
spacing_x = 320.0

[store]
backend = "sqlite"
sqlite_path = "~/crew.db"

[cache]
backend = "none"

[server]
addr = "127.0.0.1:9000"
allowed_origins = ["https://editor.example"]
metrics = false
read_timeout = "5s"

[extra]
key = 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Layout.VizType != "nodelink" || !cfg.Layout.Detailed {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Spacing.SpacingX != 320 {
		t.Errorf("SpacingX = %v, want 320", cfg.Layout.Spacing.SpacingX)
	}
	if cfg.Layout.Spacing.SpacingY != layout.DefaultSpacingY {
		t.Errorf("SpacingY = %v, want default %v", cfg.Layout.Spacing.SpacingY, layout.DefaultSpacingY)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "crew.db"); cfg.Store.SQLitePath != want {
		t.Errorf("SQLitePath = %q, want %q", cfg.Store.SQLitePath, want)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.Metrics {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://editor.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("WriteTimeout = %v, want default 60s", cfg.Server.WriteTimeout)
	}
	if !slices.Contains(cfg.Unknown, "extra.key") {
		t.Errorf("Unknown = %v, want it to list extra.key", cfg.Unknown)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvMongoURI, "mongodb://mongo:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.MongoURI != "mongodb://mongo:27017" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[layout\n"},
		{"bad viz type", "[layout]\nviz_type = \"tower\"\n"},
		{"bad store", "[store]\nbackend = \"postgres\"\n"},
		{"bad cache", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"negative width", "[layout]\ncanvas_width = -1.0\n"},
		{"nan width", "[layout]\ncanvas_width = nan\n"},
		{"inf width", "[layout]\ncanvas_width = inf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.toml")
			writeConfig(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load() should fail for %s", tt.name)
			}
		})
	}
}
