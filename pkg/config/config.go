// Package config loads tabula's TOML configuration file.
//
// A configuration file supplies defaults for the CLI and the API server;
// command-line flags and request bodies override it. Every section is
// optional:
//
//	[data]
//	x = "month"
//	x_type = "category"
//	id_converter = "snake"
//
//	[data.types]
//	sales = "bar"
//
//	[fetch]
//	timeout = "10s"
//	headers = { Authorization = "Bearer token" }
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[archive]
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tabula/pkg/archive"
	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/fetch"
	"github.com/matzehuels/tabula/pkg/pipeline"
	"github.com/matzehuels/tabula/pkg/series"
)

// FileName is the configuration file looked up by [Find].
const FileName = "config.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultAddr is the API server's listen address.
const DefaultAddr = ":8080"

// Config is the decoded configuration file.
type Config struct {
	Data    Data    `toml:"data"`
	Fetch   Fetch   `toml:"fetch"`
	Cache   Cache   `toml:"cache"`
	Archive Archive `toml:"archive"`
	Server  Server  `toml:"server"`
}

// Data holds build defaults.
type Data struct {
	X           string            `toml:"x"`
	Xs          map[string]string `toml:"xs"`
	XType       string            `toml:"x_type"`
	XFormat     string            `toml:"x_format"`
	XSort       bool              `toml:"x_sort"`
	Categories  []string          `toml:"categories"`
	DefaultType string            `toml:"default_type"`
	Types       map[string]string `toml:"types"`
	IDConverter string            `toml:"id_converter"`
	MimeType    string            `toml:"mime_type"`
}

// Fetch configures URL retrieval.
type Fetch struct {
	Headers  map[string]string `toml:"headers"`
	Timeout  time.Duration     `toml:"timeout"`
	Attempts int               `toml:"attempts"`
	Refresh  bool              `toml:"refresh"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	TTL       time.Duration `toml:"ttl"`
	// Prefix scopes every key, letting several deployments share one Redis.
	Prefix string `toml:"prefix"`
}

// Archive configures the MongoDB target archive. An empty MongoURI disables
// archiving.
type Archive struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache:  Cache{Backend: BackendFile},
		Server: Server{Addr: DefaultAddr},
	}
}

// Load reads and validates the file at path. Keys the configuration does
// not know are rejected, so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration text. It applies the same checks as [Load].
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown key: %s", undecoded[0])
	}
	return cfg, cfg.Validate()
}

// Find returns the path of the user's configuration file, or "" when there
// is none. It honors XDG_CONFIG_HOME.
func Find() string {
	dir, err := os.UserConfigDir()
	if cfgHome := os.Getenv("XDG_CONFIG_HOME"); cfgHome != "" {
		dir, err = cfgHome, nil
	}
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "tabula", FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Validate checks values that can be verified without connecting anywhere.
func (c Config) Validate() error {
	if err := (series.Options{XType: series.XType(c.Data.XType)}).Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[data]")
	}
	if _, err := series.IDConverter(c.Data.IDConverter); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[data]")
	}
	if err := errors.ValidateMimeType(c.Data.MimeType); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[data]")
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] redis backend requires redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] unknown backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Fetch.Timeout < 0 || c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "durations must not be negative")
	}
	return nil
}

// Apply fills unset fields of opts from the [data] and [fetch] sections.
// Values already present in opts win; per-request headers override
// configured ones.
func (c Config) Apply(opts *pipeline.Options) {
	d := c.Data
	s := &opts.Series
	if s.X == "" {
		s.X = d.X
	}
	if len(s.Xs) == 0 && len(d.Xs) > 0 {
		s.Xs = maps.Clone(d.Xs)
	}
	if s.XType == "" {
		s.XType = series.XType(d.XType)
	}
	if s.XFormat == "" {
		s.XFormat = d.XFormat
	}
	s.XSort = s.XSort || d.XSort
	if len(s.Categories) == 0 && len(d.Categories) > 0 {
		s.Categories = append([]string(nil), d.Categories...)
	}
	if s.DefaultType == "" {
		s.DefaultType = d.DefaultType
	}
	if len(d.Types) > 0 {
		types := maps.Clone(d.Types)
		maps.Copy(types, s.Types)
		s.Types = types
	}
	if opts.IDConverter == "" {
		opts.IDConverter = d.IDConverter
	}
	if opts.MimeType == "" && opts.Path == "" {
		opts.MimeType = d.MimeType
	}

	if len(c.Fetch.Headers) > 0 && opts.URL != "" {
		headers := maps.Clone(c.Fetch.Headers)
		maps.Copy(headers, opts.Headers)
		opts.Headers = headers
	}
	opts.Refresh = opts.Refresh || c.Fetch.Refresh
}

// FetchOptions returns the fetcher settings of the [fetch] and [cache]
// sections.
func (c Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Headers:  c.Fetch.Headers,
		Timeout:  c.Fetch.Timeout,
		Attempts: c.Fetch.Attempts,
		TTL:      c.Cache.TTL,
	}
}

// ArchiveConfig returns the MongoDB settings, and false when archiving is
// not configured.
func (c Config) ArchiveConfig() (archive.Config, bool) {
	if c.Archive.MongoURI == "" {
		return archive.Config{}, false
	}
	return archive.Config{
		URI:        c.Archive.MongoURI,
		Database:   c.Archive.Database,
		Collection: c.Archive.Collection,
	}, true
}

// OpenCache opens the configured cache backend. defaultDir is used by the
// file backend when [cache] dir is unset.
func (c Config) OpenCache(ctx context.Context, defaultDir string) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:         c.Cache.RedisAddr,
			Password:     os.Getenv("TABULA_REDIS_PASSWORD"),
			DB:           c.Cache.RedisDB,
			DialAttempts: 3,
		})
	default:
		dir := c.Cache.Dir
		if dir == "" {
			dir = defaultDir
		}
		if dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// Keyer returns the cache keyer, scoped by [cache] prefix when set.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Prefix)
}
