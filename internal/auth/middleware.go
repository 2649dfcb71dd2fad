package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is also read by the access log.
const userIDKey = "user_id"

// TokenFromRequest reads the session token from the token query parameter
// (browsers cannot set headers on a WebSocket handshake) or a bearer header.
func TokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// Middleware rejects requests without an accepted session.
func Middleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := tokens.Authenticate(TokenFromRequest(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":   "UNAUTHORIZED",
				"error":  RejectionMessage(err),
				"reason": err.Error(),
			})
			return
		}
		c.Set(userIDKey, sess.ID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
