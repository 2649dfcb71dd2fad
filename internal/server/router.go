package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/config"
	"github.com/mjhajdugaNext/messenger/internal/metrics"
	"github.com/mjhajdugaNext/messenger/internal/mw"
	"github.com/mjhajdugaNext/messenger/internal/ws"
)

// Deps is everything the router wires together.
type Deps struct {
	Config     config.Config
	Tokens     *auth.TokenService
	Handler    *Handler
	Gateway    *ws.Gateway
	UsersNS    *ws.Namespace
	MessagesNS *ws.Namespace
	Limiter    *mw.RL
	// Ready reports whether the store is reachable.
	Ready func() error
}

// SetupRouter builds the gin engine: health and metrics, the REST API and
// the two WebSocket namespaces.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestID())
	r.Use(mw.AccessLog())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(d.Config.Env, d.Config.CORSOrigins))
	if d.Limiter != nil {
		r.Use(mw.RateLimit(d.Limiter))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.POST("/auth/register", d.Handler.Register)
	api.POST("/auth/login", d.Handler.Login)

	authed := api.Group("")
	authed.Use(auth.Middleware(d.Tokens))
	authed.GET("/users/me", d.Handler.Me)
	authed.GET("/users/me/friends", d.Handler.Friends)
	authed.GET("/users/me/friends/active", d.Handler.ActiveFriends)
	authed.GET("/messages", d.Handler.ListMessages)
	authed.GET("/messages/:id", d.Handler.GetMessage)
	authed.PATCH("/messages/:id", d.Handler.UpdateMessage)
	authed.DELETE("/messages/:id", d.Handler.DeleteMessage)

	r.GET("/ws/users", d.Gateway.Serve(d.UsersNS))
	r.GET("/ws/messages", d.Gateway.Serve(d.MessagesNS))
	return r
}
