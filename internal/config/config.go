// Package config loads crewboard's TOML configuration.
//
// The default file is $XDG_CONFIG_HOME/crewboard/config.toml, falling back
// to ~/.config/crewboard/config.toml. A missing default file yields
// [Default]; a missing explicit file is an error. Paths may start with "~".
//
// Example:
//
//	[layout]
//	viz_type = "canvas"
//	canvas_width = 1600.0
//
//	[layout.spacing]
//	spacing_x = 320.0
//
//	[store]
//	backend = "sqlite"
//	sqlite_path = "~/.local/share/crewboard/diagrams.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8000"
//	allowed_origins = ["http://localhost:3000"]
//
// CREWBOARD_REDIS_ADDR and CREWBOARD_MONGO_URI override the file and select
// the redis cache and mongo store respectively.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/crewboard/pkg/cache"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/layout"
	"github.com/matzehuels/crewboard/pkg/store"
)

const appName = "crewboard"

// Environment variables that override the file.
const (
	EnvRedisAddr = "CREWBOARD_REDIS_ADDR"
	EnvMongoURI  = "CREWBOARD_MONGO_URI"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Store  store.Config `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`

	// Path is the file the config was read from, empty when defaults were used.
	Path string `toml:"-"`
	// Unknown lists keys in the file that no setting consumed.
	Unknown []string `toml:"-"`
}

// LayoutConfig holds pipeline defaults.
type LayoutConfig struct {
	VizType     string         `toml:"viz_type"`
	CanvasWidth float64        `toml:"canvas_width"`
	Detailed    bool           `toml:"detailed"`
	Spacing     layout.Options `toml:"spacing"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"` // file, redis or none
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	Metrics         bool          `toml:"metrics"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			VizType:     graph.VizTypeCanvas,
			CanvasWidth: 1280,
			Spacing:     layout.DefaultOptions(),
		},
		Store: store.Config{
			Backend:    store.BackendFile,
			Dir:        filepath.Join(DataDir(), "diagrams"),
			SQLitePath: filepath.Join(DataDir(), "diagrams.db"),
		},
		Cache: CacheConfig{
			Backend:     CacheFile,
			Dir:         CacheDir(),
			RedisPrefix: cache.DefaultRedisPrefix,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			Metrics:         true,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads the config at path, or the default path when path is empty.
// Values missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	resolved := path
	if !explicit {
		resolved = DefaultPath()
	}
	resolved, err := expandHome(resolved)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", resolved, err)
		}
		for _, key := range md.Undecoded() {
			cfg.Unknown = append(cfg.Unknown, key.String())
		}
		cfg.Path = resolved
	case os.IsNotExist(err) && !explicit:
		// no file: defaults
	default:
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}

	cfg.applyEnv()
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !graph.ValidVizType(c.Layout.VizType) {
		return fmt.Errorf("layout.viz_type: unknown value %q (must be one of: canvas, nodelink)", c.Layout.VizType)
	}
	if w := c.Layout.CanvasWidth; w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("layout.canvas_width: must be a finite, non-negative number")
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendMongo:
	default:
		return fmt.Errorf("store.backend: unknown value %q (must be one of: file, sqlite, mongo)", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache.backend: unknown value %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr: required for the redis cache")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
		c.Store.Backend = store.BackendMongo
	}
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Store.Dir, &c.Store.SQLitePath, &c.Cache.Dir} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

// DataDir returns the data directory (~/.local/share/crewboard/).
func DataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

// CacheDir returns the cache directory (~/.cache/crewboard/).
func CacheDir() string {
	return filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), appName)
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

func expandHome(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	trimmed := strings.TrimPrefix(path, "~")
	trimmed = strings.TrimPrefix(trimmed, "\\")
	trimmed = strings.TrimPrefix(trimmed, "/")
	return filepath.Clean(filepath.Join(home, trimmed)), nil
}
