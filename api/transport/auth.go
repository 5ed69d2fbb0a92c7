package transport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

const principalContextKey = "principal"

// PrincipalAuthMiddleware verifies the bearer token issued by the external
// identity provider and extracts the caller into a voting.Principal. The
// voting core never computes eligibility itself - the can_vote claim is
// carried through as-is.
func PrincipalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logging.Log.Warnf("AUTH: rejected token on %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is missing a subject"})
			return
		}

		principal := voting.Principal{ID: sub}
		principal.Name, _ = claims["name"].(string)
		principal.MemberRef, _ = claims["member_ref"].(string)
		principal.Phone, _ = claims["phone"].(string)
		principal.CanVote, _ = claims["can_vote"].(bool)
		principal.Admin, _ = claims["admin"].(bool)

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated caller set by
// PrincipalAuthMiddleware.
func PrincipalFromContext(c *gin.Context) (voting.Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return voting.Principal{}, false
	}
	principal, ok := v.(voting.Principal)
	return principal, ok
}
