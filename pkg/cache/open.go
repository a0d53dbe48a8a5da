package cache

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name in display order.
var Backends = []string{BackendFile, BackendSQLite, BackendMemory, BackendRedis, BackendMongo, BackendNone}

// Config selects and configures a cache backend.
type Config struct {
	Backend         string // One of the Backend* constants ("" = file)
	Dir             string // Directory for the file and sqlite backends
	Size            int    // Entry bound for the memory backend
	RedisURL        string // redis://host:port/db
	MongoURI        string // mongodb://host:port
	MongoDatabase   string
	MongoCollection string
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file cache requires a directory")
		}
		c, err := NewFileCache(cfg.Dir)
		return wrap(c, err)
	case BackendSQLite:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite cache requires a directory")
		}
		c, err := NewSQLiteCache(filepath.Join(cfg.Dir, "cache.db"))
		return wrap(c, err)
	case BackendMemory:
		c, err := NewMemoryCache(cfg.Size)
		return wrap(c, err)
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a url")
		}
		c, err := NewRedisCache(ctx, cfg.RedisURL, "stackaudit:")
		return wrap(c, err)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo cache requires a uri")
		}
		c, err := NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		return wrap(c, err)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (available: %v)", cfg.Backend, Backends)
	}
}

// wrap keeps a failed constructor's typed nil pointer out of the interface.
func wrap(c Cache, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
