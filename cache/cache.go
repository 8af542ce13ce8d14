// Package cache stores serialized analytics responses in redis. Entries are
// keyed by a global version number, bumping the version invalidates every
// entry at once and the stale ones expire through their TTL.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	keyPrefix  = "factfeed:analytics:"
	versionKey = keyPrefix + "version"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns nil when client is nil. A nil *Cache is valid and caches
// nothing.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// Key derives the entry key of one query from its name and parameters.
func Key(version, name string, params interface{}) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "marshal cache params")
	}
	sum := sha1.Sum(data)
	return keyPrefix + version + ":" + name + ":" + hex.EncodeToString(sum[:]), nil
}

func (c *Cache) version(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if err == redis.Nil {
		return "0", nil
	}
	return v, err
}

// Get loads the entry of (name, params) into dest and reports whether it was
// found.
func (c *Cache) Get(ctx context.Context, name string, params interface{}, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	version, err := c.version(ctx)
	if err != nil {
		return false, errors.Wrap(err, "read cache version")
	}
	key, err := Key(version, name, params)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read cache entry")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// a corrupt entry is a miss
		return false, nil
	}
	return true, nil
}

// Set stores value for (name, params) under the current version.
func (c *Cache) Set(ctx context.Context, name string, params interface{}, value interface{}) error {
	if c == nil {
		return nil
	}
	version, err := c.version(ctx)
	if err != nil {
		return errors.Wrap(err, "read cache version")
	}
	key, err := Key(version, name, params)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal cache entry")
	}
	return errors.Wrap(c.client.Set(ctx, key, data, c.ttl).Err(), "write cache entry")
}

// Invalidate bumps the version, orphaning every existing entry.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return errors.Wrap(c.client.Incr(ctx, versionKey).Err(), "bump cache version")
}
