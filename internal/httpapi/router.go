// Package httpapi serves the cached booking snapshot over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karupanerura/snapshot-cache/booking"
	"github.com/karupanerura/snapshot-cache/internal/app"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// BookingService is the part of app.App the handlers use.
type BookingService interface {
	Get(ctx context.Context, forceRefresh bool) (booking.Snapshot, error)
	Status(ctx context.Context) (*app.Status, error)
	Clear(ctx context.Context) error
}

var _ BookingService = (*app.App)(nil)

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc BookingService, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger))

	r.GET("/healthz", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/booking", h.GetBooking)
	api.GET("/booking/cache", h.GetCacheStatus)
	api.DELETE("/booking/cache", h.ClearCache)

	return r
}

// RequestIDMiddleware keeps the caller's request id or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LoggingMiddleware writes one record per request.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString("request_id")),
		)
	}
}
