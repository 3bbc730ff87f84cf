// Package config loads forcegraph settings from a TOML file.
//
// Values are resolved in three layers: built-in defaults, the config file
// (~/.config/forcegraph/config.toml or --config), then command-line flags.
// Only keys present in the file override defaults.
//
//	[canvas]
//	width = 1280
//	height = 720
//	background = "https://example.com/map.png"
//
//	[layout]
//	link_distance = 40
//
//	[layout.charge]
//	strength = -60
//
//	[render]
//	mode = "refresh"
//	formats = ["svg", "png"]
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "redis"
//	url = "redis://localhost:6379/0"
package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

const appName = "forcegraph"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the full settings tree.
type Config struct {
	Canvas CanvasConfig  `toml:"canvas"`
	Layout layout.Params `toml:"layout"`
	Render RenderConfig  `toml:"render"`
	Server ServerConfig  `toml:"server"`
	Cache  CacheConfig   `toml:"cache"`
}

// CanvasConfig sizes the drawing surface.
type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// RenderConfig controls updates and exports.
type RenderConfig struct {
	Mode             string   `toml:"mode"`
	CancelSuperseded bool     `toml:"cancel_superseded"`
	Formats          []string `toml:"formats"`
	Fit              bool     `toml:"fit"`
	Padding          float64  `toml:"padding"`
	Scale            float64  `toml:"scale"`
	NoTooltips       bool     `toml:"no_tooltips"`
	DOTLabels        bool     `toml:"dot_labels"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	MaxSessions     int      `toml:"max_sessions"`
	SessionTTL      Duration `toml:"session_ttl"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// CacheConfig selects a cache backend.
type CacheConfig struct {
	Backend    string   `toml:"backend"`
	Dir        string   `toml:"dir"`
	URL        string   `toml:"url"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	TTL        Duration `toml:"ttl"`
}

// Duration reads TOML strings such as "30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: pipeline.DefaultWidth, Height: pipeline.DefaultHeight},
		Layout: layout.DefaultParams(),
		Render: RenderConfig{
			Mode:    scene.ModeFreeze.String(),
			Formats: []string{pipeline.FormatSVG},
			Padding: pipeline.DefaultPadding,
			Scale:   pipeline.DefaultScale,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxSessions:     256,
			SessionTTL:      Duration{30 * time.Minute},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Backend:    BackendFile,
			Database:   appName,
			Collection: cache.DefaultMongoCollection,
			TTL:        Duration{pipeline.TTLArtifact},
		},
	}
}

// Dir returns the config directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// DefaultPath returns the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the file cache directory, honoring XDG_CACHE_HOME.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads path over the defaults. An empty path loads DefaultPath, and a
// missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML into cfg, which should hold defaults. Unknown keys are
// rejected so typos surface early.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := errors.ValidateCanvasSize(float64(c.Canvas.Width), float64(c.Canvas.Height)); err != nil {
		return err
	}
	if err := errors.ValidateBackground(c.Canvas.Background); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if _, err := scene.ParseMode(c.Render.Mode); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if c.Render.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render scale must be positive, got %v", c.Render.Scale)
	}
	if c.Server.MaxSessions < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "server max_sessions must be at least 1")
	}
	if !slices.Contains([]string{BackendNone, BackendFile, BackendRedis, BackendMongo}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want none, file, redis or mongo)", c.Cache.Backend)
	}
	if (c.Cache.Backend == BackendRedis || c.Cache.Backend == BackendMongo) && c.Cache.URL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend %s needs a url", c.Cache.Backend)
	}
	return nil
}

// PipelineOptions returns run options seeded from the config. Flags are
// applied on top by the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Width:            c.Canvas.Width,
		Height:           c.Canvas.Height,
		Background:       c.Canvas.Background,
		Layout:           c.Layout,
		Mode:             c.Render.Mode,
		CancelSuperseded: c.Render.CancelSuperseded,
		Formats:          slices.Clone(c.Render.Formats),
		Fit:              c.Render.Fit,
		Padding:          c.Render.Padding,
		Scale:            c.Render.Scale,
		NoTooltips:       c.Render.NoTooltips,
		DOTLabels:        c.Render.DOTLabels,
	}
}

// OpenCache connects the configured backend. A disabled cache returns a
// NullCache. Every backend is wrapped with metrics reporting.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch c.Cache.Backend {
	case BackendNone:
		backend = cache.NewNullCache()
	case BackendFile, "":
		dir := c.Cache.Dir
		if dir == "" {
			if dir, err = CacheDir(); err != nil {
				return nil, err
			}
		}
		backend, err = cache.NewFileCache(dir)
	case BackendRedis:
		backend, err = cache.NewRedisCache(ctx, c.Cache.URL)
	case BackendMongo:
		backend, err = cache.NewMongoCache(ctx, c.Cache.URL, c.Cache.Database, c.Cache.Collection)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "open %s cache", c.Cache.Backend)
	}
	return cache.Instrument(backend), nil
}
