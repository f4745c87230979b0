package session

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevoker keeps one key per revoked user holding the unix second of
// the revocation.  Keys live as long as a session can, after which every
// older token has expired anyway.
type RedisRevoker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRevoker returns a revoker storing marks under prefix.
func NewRedisRevoker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisRevoker {
	if prefix == "" {
		prefix = "efarm:revoked"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRevoker{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisRevoker) key(userID string) string { return r.prefix + ":" + userID }

// Revoke invalidates every session of userID issued before now.
func (r *RedisRevoker) Revoke(ctx context.Context, userID string) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Set(ctx, r.key(userID), time.Now().Unix(), r.ttl).Err()
}

// RevokedSince reports whether a token issued at issuedAt is not newer
// than the user's revocation mark.  iat has whole-second resolution, so a
// token issued in the same second as the mark counts as revoked.  Redis
// errors fail open and are logged.
func (r *RedisRevoker) RevokedSince(ctx context.Context, userID string, issuedAt time.Time) bool {
	if r == nil || r.rdb == nil {
		return false
	}
	v, err := r.rdb.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "revocation lookup failed", "user_id", userID, "error", err)
		}
		return false
	}
	at, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	return issuedAt.Unix() <= at
}
