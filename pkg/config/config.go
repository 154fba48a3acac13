// Package config loads dotgraph settings from a TOML file.
//
// The file is optional; every setting has a default, and CLI flags override
// file values. The default location follows the XDG base directory layout:
//
//	$XDG_CONFIG_HOME/dotgraph/config.toml   (~/.config/dotgraph/config.toml)
//
// Example:
//
//	[render]
//	bin_dir = "/opt/graphviz/bin"
//	engine = "dot"
//	format = "svg"
//	timeout = "30s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// appName names the config and cache directories.
const appName = "dotgraph"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists the accepted cache.backend values.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Config is the parsed configuration file.
type Config struct {
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Render configures the renderer.
type Render struct {
	// BinDir holds the Graphviz executables. Empty means $PATH lookup.
	BinDir        string        `toml:"bin_dir"`
	Engine        string        `toml:"engine"`
	Format        string        `toml:"format"`
	Timeout       time.Duration `toml:"timeout"`
	InProcess     bool          `toml:"in_process"`
	AllowWarnings bool          `toml:"allow_warnings"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	Prefix        string `toml:"prefix"`
	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: Render{
			Engine:  string(render.DefaultEngine),
			Format:  string(render.DefaultFormat),
			Timeout: render.DefaultTimeout,
		},
		Cache: Cache{
			Backend:       BackendFile,
			MongoDatabase: appName,
		},
		Server: Server{
			Addr:            ":8080",
			MaxBodyBytes:    4 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over the defaults. A missing file is not an
// error when path is the default location; an explicitly named file must
// exist. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := errors.ValidateEngine(c.Render.Engine); err != nil {
		return err
	}
	if err := errors.ValidateFormat(c.Render.Format); err != nil {
		return err
	}
	if c.Render.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.timeout must not be negative")
	}

	if !slices.Contains(Backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput,
			"cache.backend %q must be one of %s", c.Cache.Backend, strings.Join(Backends, ", "))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.mongo_uri is required for the mongo backend")
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body_bytes must be positive")
	}
	return nil
}

// RenderConfig returns the renderer settings.
func (c *Config) RenderConfig() render.Config {
	return render.Config{
		BinDir:        c.Render.BinDir,
		Timeout:       c.Render.Timeout,
		AllowWarnings: c.Render.AllowWarnings,
	}
}
