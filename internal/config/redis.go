package config

// This file defines the Redis client constructor.  Redis backs the
// response cache of catalogue and order views and the session
// revocation marks.  Both features are optional: when Redis cannot be
// reached at startup the constructor returns nil and callers degrade to
// no-ops.

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (host/port win when both are set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//
// ok is false when REDIS_DISABLED is set.
func RedisOptions() (opts *redis.Options, ok bool) {
	if v := os.Getenv("REDIS_DISABLED"); v == "1" || strings.EqualFold(v, "true") {
		return nil, false
	}
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	opts = &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	}
	if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, true
}

// NewRedisClient connects using RedisOptions and pings the server with a
// short timeout.  It returns nil when Redis is disabled or unreachable.
func NewRedisClient() *redis.Client {
	opts, ok := RedisOptions()
	if !ok {
		slog.Info("redis disabled by configuration")
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, cache and session revocation disabled", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
