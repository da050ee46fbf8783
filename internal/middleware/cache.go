package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rail-ticket-reservation/internal/config"
)

// lookupRecorder buffers a handler's body while streaming it to the
// client, so a successful lookup can be stored for later hits.  Bodies
// larger than limit stream through uncached.
type lookupRecorder struct {
	http.ResponseWriter
	status int
	body   []byte
	size   int
	limit  int
}

func (r *lookupRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *lookupRecorder) Write(b []byte) (int, error) {
	r.size += len(b)
	if r.size <= r.limit {
		r.body = append(r.body, b...)
	}
	return r.ResponseWriter.Write(b)
}

// lookupKey hashes method, concrete request path and query, so
// /v1/trains/G1/journeys and /v1/trains/K2/journeys cache separately.
func lookupKey(prefix string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// A cache entry is [4 bytes status][4 bytes ctLen][content type][body].
func packEntry(status int, contentType string, body []byte) []byte {
	out := make([]byte, 8+len(contentType)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(contentType)))
	copy(out[8:], contentType)
	copy(out[8+len(contentType):], body)
	return out
}

func unpackEntry(raw []byte) (status int, contentType string, body []byte, ok bool) {
	if len(raw) < 8 {
		return 0, "", nil, false
	}
	status = int(binary.BigEndian.Uint32(raw[0:4]))
	ctLen := int(binary.BigEndian.Uint32(raw[4:8]))
	if 8+ctLen > len(raw) {
		return 0, "", nil, false
	}
	return status, string(raw[8 : 8+ctLen]), raw[8+ctLen:], true
}

// NewRedisCache serves repeated route and registry lookups from Redis.
// Only 200 GET responses are stored; everything else passes through.
// Seat availability and order endpoints must not sit behind this.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			key := lookupKey(cfg.Prefix, req)

			if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				if status, ct, body, ok := unpackEntry(raw); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, ct, body)
				}
			}

			rec := &lookupRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && rec.size <= rec.limit {
				ct := c.Response().Header().Get(echo.HeaderContentType)
				entry := packEntry(rec.status, ct, rec.body)
				storeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = rdb.SetEx(storeCtx, key, entry, cfg.TTL).Err()
				cancel()
			}
			return nil
		}
	}
}
