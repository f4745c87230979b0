package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/efarm/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		if cw.limit <= 0 {
			cw.buf.Write(b)
		} else if remain > 0 {
			if int64(len(b)) <= remain {
				cw.buf.Write(b)
			} else {
				cw.buf.Write(b[:remain])
			}
		}
	}
	// size counts every byte, not just the buffered ones, so an oversized
	// body is detected and skipped instead of caching a truncated copy.
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCache caches GET responses of catalogue and order views in
// Redis and drops them when workflows signal that the underlying data
// changed.  Keys are "<prefix>:<sha1(path)>:<sha1(user|query)>" so a
// path can be invalidated for every user at once.  A nil *ResponseCache
// or one without a client is a valid no-op.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewResponseCache returns a cache; rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "efarm:cache"
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

func (rc *ResponseCache) pathKey(p string) string {
	sum := sha1.Sum([]byte(p))
	return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:])
}

// keyFor builds the entry key; the user id is part of it because order
// views are per user.
func (rc *ResponseCache) keyFor(c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(userID(c) + "|" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", rc.pathKey(r.URL.Path), sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	total := 4 + 4 + len(hdrJSON) + len(body)
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	var hdr http.Header
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	} else {
		hdr = make(http.Header)
	}
	body = bs[8+hlen:]
	return status, hdr, body, true
}

// Middleware serves hits from Redis and stores 200 responses on miss.
// Set-Cookie is never cached: the gate refreshes the session cookie on
// every request and one user's cookie must not reach another.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := rc.keyFor(c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "Set-Cookie") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}

			hdr := make(http.Header, len(c.Response().Header()))
			for k, vals := range c.Response().Header() {
				if strings.EqualFold(k, "Set-Cookie") || strings.EqualFold(k, "X-Cache") {
					continue
				}
				vv := make([]string, len(vals))
				copy(vv, vals)
				hdr[k] = vv
			}
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
					slog.WarnContext(ctx, "cache store failed", "key", key, "error", err)
				}
			}
			return nil
		}
	}
}

// Invalidate drops every cached entry, for every user, of the given
// request paths.
func (rc *ResponseCache) Invalidate(ctx context.Context, paths ...string) {
	if !rc.enabled() {
		return
	}
	for _, p := range paths {
		match := rc.pathKey(p) + ":*"
		iter := rc.rdb.Scan(ctx, 0, match, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			slog.WarnContext(ctx, "cache invalidation scan failed", "path", p, "error", err)
			continue
		}
		if len(keys) > 0 {
			if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
				slog.WarnContext(ctx, "cache invalidation failed", "path", p, "error", err)
			}
		}
	}
}
