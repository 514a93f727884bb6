// Package cache stores translations keyed by text hash and target language
// so unchanged paragraphs are not sent to a backend again.
package cache

import (
	"fmt"
	"time"

	"github.com/ZaguanLabs/hfit"
)

// TranslationCache is the interface for translation caching.
type TranslationCache = hfit.TranslationCache

// Lister is implemented by caches whose contents can be exported.
type Lister interface {
	Entries() (map[string]string, error)
}

// Cache kinds accepted by Open.
const (
	KindNone   = "none"
	KindMemory = "memory"
	KindRedis  = "redis"
	KindSQLite = "sqlite"
)

// Options selects and configures a cache.
type Options struct {
	Kind string        // none, memory, redis or sqlite
	TTL  time.Duration // Entry lifetime, 0 keeps entries forever
	URL  string        // Redis URL
	Path string        // SQLite database file
}

// Open builds the cache described by opts. It returns nil for KindNone.
// The returned closer releases connections and is never nil.
func Open(opts Options) (TranslationCache, func() error, error) {
	noop := func() error { return nil }
	switch opts.Kind {
	case "", KindNone:
		return nil, noop, nil
	case KindMemory:
		return NewInMemoryCache(opts.TTL), noop, nil
	case KindRedis:
		c, err := NewRedisCache(RedisConfig{URL: opts.URL, TTL: opts.TTL})
		if err != nil {
			return nil, noop, &hfit.CacheError{Message: "connecting to redis", Cause: err}
		}
		return c, c.Close, nil
	case KindSQLite:
		c, err := NewSQLiteCache(SQLiteConfig{Path: opts.Path, TTL: opts.TTL})
		if err != nil {
			return nil, noop, &hfit.CacheError{Message: "opening sqlite cache", Cause: err}
		}
		return c, c.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown cache kind %q", opts.Kind)
}
