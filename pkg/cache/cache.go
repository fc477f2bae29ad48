// Package cache stores finished placement results keyed by their inputs.
//
// A placement run is a pure function of the density volume, the obstacles,
// the recipe parameters and the seed, so identical requests can be served
// from the cache instead of re-running the generator.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for several `ngv serve` instances
//   - [MongoCache]: persistent cache with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] selects a backend from a URL:
//
//	c, err := cache.Open(ctx, "redis://localhost:6379/0", "")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// DefaultTTL is the lifetime of a cached placement.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the data stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Open returns the backend addressed by rawURL:
//
//	""                    file cache in dir
//	"file:///some/dir"    file cache in /some/dir
//	"redis://..."         Redis (also rediss://)
//	"mongodb://..."       MongoDB (also mongodb+srv://)
//	"none"                null cache
func Open(ctx context.Context, rawURL, dir string) (Cache, error) {
	if rawURL == "none" {
		return NewNullCache(), nil
	}
	if rawURL == "" {
		return asCache(NewFileCache(dir))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid cache url")
	}
	switch u.Scheme {
	case "file":
		return asCache(NewFileCache(u.Path))
	case "redis", "rediss":
		return asCache(NewRedisCache(ctx, rawURL))
	case "mongodb", "mongodb+srv":
		return asCache(NewMongoCache(ctx, rawURL))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported cache scheme %q", u.Scheme)
	}
}

func asCache[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Describe returns a printable form of rawURL with credentials removed.
func Describe(rawURL, dir string) string {
	switch rawURL {
	case "":
		return fmt.Sprintf("file (%s)", dir)
	case "none":
		return "disabled"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
