package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

// RateLimitMiddleware consults the SecurityGate before letting a request
// through. The client identifier is the authenticated principal when
// available, otherwise the client IP.
func RateLimitMiddleware(gate *voting.SecurityGate, class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if principal, ok := PrincipalFromContext(c); ok {
			client = principal.ID
		}

		decision := gate.Allow(c.Request.Context(), client, class)
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			logging.Log.Warnf("GATE: rate limit exceeded for %s on class %s", client, class)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
