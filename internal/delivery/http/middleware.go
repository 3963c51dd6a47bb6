package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RavenLB/E-commerce/internal/entity"
)

const (
	userKey         = "user"
	requestIDHeader = "X-Request-ID"
)

// EnableCORS lets browsers on any origin call the API with a bearer token.
// Preflight requests are answered with 204 and go no further.
func EnableCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger logs every request once, after it was served.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	}
}

func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		h.metrics.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

// rateLimit counts requests per client IP. When the limiter itself fails the
// request is let through.
func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := h.limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("Rate limiter unavailable", "err", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}

// requireAuth resolves the bearer token to a user and stores it on the
// context.
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		respondError(c, entity.Unauthorized("Authorization header is required"))
		return
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		respondError(c, entity.Unauthorized("Invalid token format, must be 'Bearer <token>'"))
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func requireAdmin(c *gin.Context) {
	if !currentUser(c).IsAdmin {
		respondError(c, entity.ErrForbidden)
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *entity.User {
	return c.MustGet(userKey).(*entity.User)
}
