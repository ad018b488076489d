package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/internal/config"
	"github.com/matzehuels/crewboard/pkg/buildinfo"
	"github.com/matzehuels/crewboard/pkg/cache"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/store"
	"github.com/matzehuels/crewboard/pkg/store/backends"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "crewboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration, reading it on first use.
func (c *CLI) Config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	for _, key := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", key)
	}
	c.cfg = &cfg
	return c.cfg, nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "crewboard lays out, renders and plans multi-agent crew diagrams",
		Long: `crewboard is the toolkit behind the crew workflow editor.

It levels crew diagrams into tiers, computes canvas positions for every agent,
renders diagrams as SVG or Graphviz, derives the order in which tasks run and
keeps a library of saved diagrams. The same engine is served over HTTP
('crewboard serve') and as MCP tools ('crewboard mcp').`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			_, err := c.Config()
			return err
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.diagramsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// Cache key scopes for the long-running entry points. One-shot commands use
// unscoped keys.
const (
	scopeServer = "server:"
	scopeMCP    = "mcp:"
)

// newRunner creates a pipeline runner backed by the configured cache. A
// non-empty scope prefixes every cache key so a server sharing a Redis cache
// with CLI users keeps its entries apart.
func (c *CLI) newRunner(ctx context.Context, noCache bool, scope string) (*pipeline.Runner, error) {
	cch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope)
	}
	return pipeline.NewRunner(cch, keyer, c.Logger), nil
}

// newCache opens the cache selected by the config. A file cache that cannot
// be created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB,
			cache.WithRedisPrefix(cfg.Cache.RedisPrefix))
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		c.Logger.Debug("using redis cache", "addr", cfg.Cache.RedisAddr)
		return rc, nil
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// openStore opens the configured diagram library.
func (c *CLI) openStore(ctx context.Context) (*store.Instrumented, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	st, err := backends.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open diagram store: %w", err)
	}
	c.Logger.Debug("opened diagram store", "backend", st.Backend())
	return st, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions returns the pipeline options configured under [layout].
func (c *CLI) pipelineOptions() (pipeline.Options, error) {
	cfg, err := c.Config()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		VizType:     cfg.Layout.VizType,
		CanvasWidth: cfg.Layout.CanvasWidth,
		Spacing:     cfg.Layout.Spacing,
		Detailed:    cfg.Layout.Detailed,
		Logger:      c.Logger,
	}, nil
}

// loadDiagram reads a diagram file and fills in editor defaults.
func loadDiagram(path string) (*diagram.Diagram, error) {
	d, err := diagram.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load diagram %s: %w", path, err)
	}
	d.Normalize()
	return d, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath strips the extension from input, so outputs land next to it.
func basePath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}
