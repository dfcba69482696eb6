package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/orchestrator"
)

const (
	claimsKey = "sessionClaims"
	wizardKey = "wizard"
)

// requestLogger logs one line per request with the route template rather than the raw path.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"route":     route,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", fields)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", fields)
		default:
			log.Info("request handled", fields)
		}
	}
}

// sessionAuth validates the bearer token and loads the session's wizard into the context.
func (h *handlers) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		raw, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := h.tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		w, err := h.open(c, claims)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Sessie kon niet worden geladen"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(wizardKey, w)
		c.Next()
	}
}

func currentWizard(c *gin.Context) *orchestrator.Wizard {
	return c.MustGet(wizardKey).(*orchestrator.Wizard)
}

func currentClaims(c *gin.Context) *SessionClaims {
	return c.MustGet(claimsKey).(*SessionClaims)
}
