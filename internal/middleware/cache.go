package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// bodyCapture duplicates the response body while forwarding it to the
// client so a successful catalog render can be stored afterwards.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// CatalogCache caches successful GET responses of the public catalog in
// Redis for a short TTL, keyed by route and query string. The catalog is
// read far more often than it changes and a stale entry only delays a new
// listing's appearance by the TTL. A nil client disables caching.
func CatalogCache(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := "catalog:" + c.Path() + "?" + c.Request().URL.RawQuery

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK {
				rdb.Set(ctx, key, cw.buf.Bytes(), ttl)
			}
			return nil
		}
	}
}
