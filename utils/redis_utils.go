package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisPingTimeout = 2 * time.Second
)

// RedisOptions mirrors the REDIS_* env variables. Empty Host means redis is
// not configured.
type RedisOptions struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisOptionsFromEnv reads REDIS_HOST, REDIS_PORT and REDIS_PASSWD.
func RedisOptionsFromEnv() RedisOptions {
	return RedisOptions{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWD"),
	}
}

// GetRedisClient returns a client for opts, or nil when redis is not
// configured or does not answer a ping. Callers treat nil as "feature off".
func GetRedisClient(opts RedisOptions) *redis.Client {
	if opts.Host == "" {
		return nil
	}
	port := opts.Port
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, port),
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil
	}
	return client
}
