package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karupanerura/snapshot-cache/errorclass"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CacheStatusResponse is the body of GET /api/booking/cache.
type CacheStatusResponse struct {
	Backend        string     `json:"backend"`
	Key            string     `json:"key"`
	Cached         bool       `json:"cached"`
	ShipReference  string     `json:"shipReference,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CacheExpiresAt *time.Time `json:"cacheExpiresAt,omitempty"`
	Expired        bool       `json:"expired"`
	CacheExpired   bool       `json:"cacheExpired"`
}

// Handler holds the HTTP handlers.
type Handler struct {
	svc    BookingService
	logger *slog.Logger
}

// HealthCheck reports that the process is serving.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetBooking returns the booking snapshot. refresh=true bypasses the cache.
// A snapshot served after a failed fetch carries isStale and a Warning header.
func (h *Handler) GetBooking(c *gin.Context) {
	refresh := false
	if v := c.Query("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: "refresh must be a boolean",
			})
			return
		}
		refresh = b
	}

	s, err := h.svc.Get(c.Request.Context(), refresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	if s.IsStale {
		c.Header("Warning", `110 - "Response is Stale"`)
	}
	c.JSON(http.StatusOK, s)
}

// GetCacheStatus describes the persisted entry without loading anything.
func (h *Handler) GetCacheStatus(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := CacheStatusResponse{
		Backend:       st.Backend,
		Key:           st.Key,
		Cached:        st.Cached,
		ShipReference: st.ShipReference,
		Expired:       st.Expired,
		CacheExpired:  st.CacheExpired,
	}
	if !st.ExpiresAt.IsZero() {
		resp.ExpiresAt = &st.ExpiresAt
	}
	if !st.CacheExpiresAt.IsZero() {
		resp.CacheExpiresAt = &st.CacheExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// ClearCache removes the persisted entry.
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	ce := errorclass.Classify(err)
	h.logger.WarnContext(c.Request.Context(), "request failed",
		slog.String("type", string(ce.Kind)),
		slog.String("error", err.Error()),
	)
	c.JSON(statusFor(ce.Kind), ErrorResponse{
		Error:   string(ce.Kind),
		Message: ce.Message,
	})
}

// statusFor maps an error kind to the status this service answers with.
// Failures of the booking service are reported as gateway errors.
func statusFor(kind errorclass.Kind) int {
	switch {
	case kind == errorclass.KindTimeout:
		return http.StatusGatewayTimeout
	case kind == errorclass.KindUnknown:
		return http.StatusInternalServerError
	case kind == errorclass.KindNetwork,
		kind == errorclass.KindServer,
		kind == errorclass.KindUnauthorized,
		kind == errorclass.KindForbidden,
		kind == errorclass.KindNotFound,
		strings.HasPrefix(string(kind), string(errorclass.KindServer)+"_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
