// Package ws is the connection gateway: it binds each WebSocket connection to
// an authenticated user, keeps per-namespace channel registries, and routes
// named events to the friend-graph and message engines.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/keylock"
	"github.com/mjhajdugaNext/messenger/internal/metrics"
	"github.com/mjhajdugaNext/messenger/internal/mw"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
)

// Authenticator verifies the token presented on the handshake and later
// re-checks the session's expiry.
type Authenticator interface {
	Authenticate(token string) (auth.Session, error)
	Status(s auth.Session) auth.ExpirationStatus
}

// Presence records whether a user has at least one live connection.
type Presence interface {
	SetPresence(ctx context.Context, userID string, active bool) error
}

// Gateway accepts connections for any number of namespaces and tracks
// presence across all of them.
type Gateway struct {
	tokens   Authenticator
	presence Presence
	locks    *keylock.Locker
	limiter  *mw.RL
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]int

	// serving counts accepted requests until their presence is settled.
	serving sync.WaitGroup

	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewGateway builds a gateway. limiter may be nil to disable inbound event
// throttling; env and origins follow the CORS policy of the REST surface.
func NewGateway(tokens Authenticator, presence Presence, locks *keylock.Locker, limiter *mw.RL, env string, origins []string) *Gateway {
	allowed := mw.OriginSet(origins)
	return &Gateway{
		tokens:   tokens,
		presence: presence,
		locks:    locks,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || mw.OriginAllowed(env, allowed, origin, r.Host)
			},
		},
		conns:      make(map[string]int),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
}

// Serve upgrades authenticated requests into connections of ns. Requests
// without an accepted session are refused before the upgrade, so no handler
// runs and no channel membership is created.
func (g *Gateway) Serve(ns *Namespace) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := g.tokens.Authenticate(auth.TokenFromRequest(c.Request))
		if err != nil {
			log.Info().Str("namespace", ns.Name()).Str("reason", err.Error()).Msg("ws connection rejected")
			metrics.WsRejected.WithLabelValues(ns.Name(), err.Error()).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":   "UNAUTHORIZED",
				"error":  auth.RejectionMessage(err),
				"reason": err.Error(),
			})
			return
		}
		g.serving.Add(1)
		defer g.serving.Done()

		conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug().Err(err).Str("namespace", ns.Name()).Msg("ws upgrade")
			return
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		client := &Client{
			gw:      g,
			ns:      ns,
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			session: sess,
			userID:  sess.ID,
		}

		g.attach(ctx, sess.ID)
		defer g.detach(context.WithoutCancel(ctx), sess.ID)
		if !ns.hub.Register(client) {
			_ = conn.Close()
			return
		}
		log.Info().Str("namespace", ns.Name()).Str("user_id", sess.ID).Msg("ws connected")

		// Sent after registration so the client knows fanout now reaches it.
		if b, err := encode(EventConnected, connectedPayload{UserID: sess.ID, Namespace: ns.Name()}); err == nil {
			ns.hub.Reply(client, b)
		}

		go client.writePump()
		client.readPump(ctx)
		log.Info().Str("namespace", ns.Name()).Str("user_id", sess.ID).Msg("ws disconnected")
	}
}

// attach counts a new connection; the first one marks the user active.
func (g *Gateway) attach(ctx context.Context, userID string) {
	unlock := g.locks.Lock(userID)
	defer unlock()

	g.mu.Lock()
	g.conns[userID]++
	first := g.conns[userID] == 1
	g.mu.Unlock()

	if first {
		metrics.ActiveUsers.Inc()
		if err := g.presence.SetPresence(ctx, userID, true); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("mark user active")
		}
	}
}

// detach is attach's inverse; the last connection marks the user inactive.
func (g *Gateway) detach(ctx context.Context, userID string) {
	unlock := g.locks.Lock(userID)
	defer unlock()

	g.mu.Lock()
	g.conns[userID]--
	last := g.conns[userID] <= 0
	if last {
		delete(g.conns, userID)
	}
	g.mu.Unlock()

	if last {
		metrics.ActiveUsers.Dec()
		if err := g.presence.SetPresence(ctx, userID, false); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("mark user inactive")
		}
	}
}

// Wait blocks until every accepted connection has been torn down and its
// presence recorded, or ctx is done. Hijacked connections are invisible to
// http.Server.Shutdown, so stop the hubs and call Wait before closing the
// database.
func (g *Gateway) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		g.serving.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connections reports how many live connections userID has across namespaces.
func (g *Gateway) Connections(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conns[userID]
}

func (g *Gateway) allow(userID string) bool {
	if g.limiter == nil {
		return true
	}
	return g.limiter.Allow("ws|" + userID)
}
