// Package config loads stackaudit settings from a TOML file, a .env file and
// the environment, in increasing order of precedence. Command-line flags are
// applied on top by the caller.
//
// A minimal config.toml:
//
//	[ossindex]
//	username = "me@example.com"
//	token    = "..."
//
//	[cache]
//	backend = "sqlite"
//	ttl     = "48h"
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/stackaudit/pkg/audit"
	"github.com/matzehuels/stackaudit/pkg/cache"
	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/errors"
	"github.com/matzehuels/stackaudit/pkg/integrations/maven"
	"github.com/matzehuels/stackaudit/pkg/integrations/ossindex"
)

// AppName names the config and cache directories.
const AppName = "stackaudit"

// Environment variables that override file values.
const (
	EnvOSSIndexUsername = "OSSINDEX_USERNAME"
	EnvOSSIndexToken    = "OSSINDEX_TOKEN"
	EnvCacheBackend     = "STACKAUDIT_CACHE"
	EnvRedisURL         = "REDIS_URL"
	EnvMongoURI         = "MONGO_URI"
	EnvAddr             = "STACKAUDIT_ADDR"
)

// DefaultAddr is the listen address of "stackaudit serve".
const DefaultAddr = ":8080"

// Config is the complete set of settings.
type Config struct {
	OSSIndex OSSIndexConfig `toml:"ossindex"`
	Maven    MavenConfig    `toml:"maven"`
	Cache    CacheConfig    `toml:"cache"`
	Resolve  ResolveConfig  `toml:"resolve"`
	Server   ServerConfig   `toml:"server"`
}

// OSSIndexConfig configures the audit service client.
type OSSIndexConfig struct {
	URL         string   `toml:"url"`
	Username    string   `toml:"username"`
	Token       string   `toml:"token"`
	Concurrency int      `toml:"concurrency"`
	RateLimit   float64  `toml:"rate_limit"`
	ReportTTL   Duration `toml:"report_ttl"`
}

// MavenConfig configures the repository client.
type MavenConfig struct {
	Repository string `toml:"repository"`
	Search     string `toml:"search"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend         string   `toml:"backend"`
	Dir             string   `toml:"dir"`
	Size            int      `toml:"size"`
	TTL             Duration `toml:"ttl"`
	RedisURL        string   `toml:"redis_url"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// ResolveConfig bounds dependency resolution.
type ResolveConfig struct {
	MaxDepth       int  `toml:"max_depth"`
	MaxNodes       int  `toml:"max_nodes"`
	FirstSeenRoots bool `toml:"first_seen_roots"`
}

// ServerConfig configures "stackaudit serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that decodes from strings like "36h".
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
	return []byte(d.String()), nil
}

// Load reads .env from the working directory (if present), then the TOML
// file at path, then environment overrides, and finally fills defaults.
//
// An empty path means [DefaultPath]; a missing default file is not an error,
// a missing explicit file is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		err := decodeFile(path, &cfg)
		switch {
		case err == nil:
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.WithDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects endpoint URLs that are not http or https.
func (c *Config) validate() error {
	endpoints := []struct{ key, url string }{
		{"ossindex.url", c.OSSIndex.URL},
		{"maven.repository", c.Maven.Repository},
		{"maven.search", c.Maven.Search},
	}
	for _, e := range endpoints {
		if e.url == "" {
			continue
		}
		if err := errors.ValidateURL(e.url); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", e.key)
		}
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.OSSIndex.Username = firstNonEmpty(os.Getenv(EnvOSSIndexUsername), c.OSSIndex.Username)
	c.OSSIndex.Token = firstNonEmpty(os.Getenv(EnvOSSIndexToken), c.OSSIndex.Token)
	c.Cache.Backend = firstNonEmpty(os.Getenv(EnvCacheBackend), c.Cache.Backend)
	c.Cache.RedisURL = firstNonEmpty(os.Getenv(EnvRedisURL), c.Cache.RedisURL)
	c.Cache.MongoURI = firstNonEmpty(os.Getenv(EnvMongoURI), c.Cache.MongoURI)
	c.Server.Addr = firstNonEmpty(normalizeAddr(os.Getenv(EnvAddr)), c.Server.Addr)
}

// WithDefaults fills every unset field.
func (c *Config) WithDefaults() *Config {
	c.OSSIndex.URL = firstNonEmpty(c.OSSIndex.URL, ossindex.DefaultBaseURL)
	if c.OSSIndex.ReportTTL.Duration <= 0 {
		c.OSSIndex.ReportTTL.Duration = audit.DefaultReportTTL
	}
	c.Maven.Repository = firstNonEmpty(c.Maven.Repository, maven.DefaultRepositoryURL)
	c.Maven.Search = firstNonEmpty(c.Maven.Search, maven.DefaultSearchURL)

	c.Cache.Backend = strings.ToLower(firstNonEmpty(c.Cache.Backend, cache.BackendFile))
	if c.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if c.Cache.TTL.Duration <= 0 {
		c.Cache.TTL.Duration = deps.DefaultCacheTTL
	}

	if c.Resolve.MaxDepth <= 0 {
		c.Resolve.MaxDepth = deps.DefaultMaxDepth
	}
	if c.Resolve.MaxNodes <= 0 {
		c.Resolve.MaxNodes = deps.DefaultMaxNodes
	}
	c.Server.Addr = firstNonEmpty(c.Server.Addr, DefaultAddr)
	return c
}

// CacheOptions converts the cache section for [cache.Open].
func (c *Config) CacheOptions() cache.Config {
	return cache.Config{
		Backend:         c.Cache.Backend,
		Dir:             c.Cache.Dir,
		Size:            c.Cache.Size,
		RedisURL:        c.Cache.RedisURL,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
	}
}

// OSSIndexOptions converts the ossindex section for [ossindex.NewClient].
func (c *Config) OSSIndexOptions() ossindex.Config {
	return ossindex.Config{
		BaseURL:     c.OSSIndex.URL,
		Username:    c.OSSIndex.Username,
		Token:       c.OSSIndex.Token,
		Concurrency: c.OSSIndex.Concurrency,
		RateLimit:   c.OSSIndex.RateLimit,
	}
}

// ReportKeyer returns the keyer for cached audit reports. Reports fetched
// with OSS Index credentials are kept apart from anonymous ones, since the
// account decides rate limits and visibility.
func (c *Config) ReportKeyer() cache.Keyer {
	if c.OSSIndex.Username == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, "user:"+cache.Hash([]byte(c.OSSIndex.Username))[:12]+":")
}

// ResolveOptions converts the resolve section for a [deps.Resolver].
func (c *Config) ResolveOptions() deps.Options {
	return deps.Options{
		MaxDepth: c.Resolve.MaxDepth,
		MaxNodes: c.Resolve.MaxNodes,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/stackaudit/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/stackaudit/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// normalizeAddr turns a bare port such as "9000" into ":9000".
func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	if _, err := strconv.Atoi(addr); err == nil {
		return ":" + addr
	}
	return addr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
