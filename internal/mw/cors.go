package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS answers cross-origin requests. With an explicit origin list only those
// origins are echoed; otherwise dev allows any origin and other environments
// only same-host origins.
func CORS(env string, origins []string) gin.HandlerFunc {
	allowed := OriginSet(origins)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if OriginAllowed(env, allowed, origin, c.Request.Host) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// OriginAllowed applies the CORS origin policy. The WebSocket upgrader uses it
// too, so browsers get the same answer on both surfaces.
func OriginAllowed(env string, allowed map[string]struct{}, origin, host string) bool {
	if len(allowed) > 0 {
		_, ok := allowed[strings.TrimRight(origin, "/")]
		return ok
	}
	if env == "dev" {
		return true
	}
	return strings.Contains(origin, host)
}

// OriginSet normalizes a configured origin list for OriginAllowed.
func OriginSet(origins []string) map[string]struct{} {
	out := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out[o] = struct{}{}
		}
	}
	return out
}
