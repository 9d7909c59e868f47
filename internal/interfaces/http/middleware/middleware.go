package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment/internal/domain/account"
	"fulfillment/pkg/logger"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAccountID     = "X-Account-Id"
	HeaderAccountAdmin  = "X-Account-Admin"
	HeaderAccountActive = "X-Account-Active"

	identityKey = "identity"
)

// RequestID propagates the caller's request id, or assigns one, and stores
// it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		l := log.WithContext(c.Request.Context())
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Error("Request failed", append(fields, logger.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= http.StatusBadRequest:
			l.Warn("Request rejected", fields...)
		default:
			l.Info("Request served", fields...)
		}
	}
}

// Identity reads the caller identity set by the upstream auth layer.
// Requests without an account id are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderAccountID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderAccountID + " header"})
			return
		}
		c.Set(identityKey, account.Identity{
			AccountID: id,
			IsAdmin:   headerBool(c, HeaderAccountAdmin, false),
			IsActive:  headerBool(c, HeaderAccountActive, true),
		})
		c.Next()
	}
}

// RequireAdmin must run after Identity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := IdentityFrom(c); !id.IsAdmin || !id.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": account.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) account.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return account.Identity{}
	}
	id, _ := v.(account.Identity)
	return id
}

func headerBool(c *gin.Context, name string, fallback bool) bool {
	raw := c.GetHeader(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
