package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tabula/pkg/archive"
	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/config"
	"github.com/matzehuels/tabula/pkg/fetch"
	"github.com/matzehuels/tabula/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "tabula"

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

	// Set by persistent flags.
	configPath string
	verbose    bool
	noCache    bool

	out    io.Writer
	status io.Writer // spinners and per-source results
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		status: os.Stderr,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads --config, else the user's config file, else defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("loaded config", "path", path)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use, with the cache backend
// and fetch settings of cfg.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	keyer := cfg.Keyer()
	r := pipeline.NewRunner(cc, keyer, c.Logger)
	r.Fetcher = fetch.New(cc, keyer, cfg.FetchOptions())
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		dir = ""
	}
	return cfg.OpenCache(ctx, dir)
}

// connectArchive opens the MongoDB archive configured in cfg.
func (c *CLI) connectArchive(ctx context.Context, cfg config.Config) (*archive.Archive, error) {
	ac, ok := cfg.ArchiveConfig()
	if !ok {
		return nil, fmt.Errorf("archiving requires [archive] mongo_uri in the config file")
	}
	a, err := archive.Connect(ctx, ac)
	if err != nil {
		return nil, err
	}
	if err := a.EnsureIndexes(ctx); err != nil {
		c.Logger.Warn("archive indexes", "error", err)
	}
	return a, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tabula/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
