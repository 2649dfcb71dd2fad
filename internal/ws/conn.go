package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/metrics"
)

// Client is one live connection bound to one user in one namespace.
type Client struct {
	gw      *Gateway
	ns      *Namespace
	conn    *websocket.Conn
	send    chan []byte
	session auth.Session
	userID  string
}

// readPump handles events one at a time, so effects are observed in the order
// the client sent them.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.ns.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.gw.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.gw.pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("user_id", c.userID).Msg("ws read")
			}
			return
		}
		c.handle(ctx, data)
	}
}

func (c *Client) handle(ctx context.Context, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
		c.fail("", "malformed", apperr.ValidationError("event frame must be {\"event\": name, \"data\": payload}"))
		return
	}
	h, ok := c.ns.handlers[in.Event]
	if !ok {
		c.fail(in.Event, "unknown", apperr.ValidationError("unknown event "+in.Event))
		return
	}
	if !c.gw.allow(c.userID) {
		c.fail(in.Event, in.Event, apperr.RateLimited("too many events"))
		return
	}
	if err := h(ctx, c, in.Data); err != nil {
		c.fail(in.Event, in.Event, err)
		return
	}
	metrics.WsEvents.WithLabelValues(c.ns.Name(), in.Event, "ok").Inc()
}

// fail acknowledges a failed event to this connection only. The connection
// stays open.
func (c *Client) fail(event, label string, err error) {
	ae := apperr.From(err)
	metrics.WsEvents.WithLabelValues(c.ns.Name(), label, ae.Code).Inc()
	if ae.Code == apperr.CodeInternal {
		log.Error().Err(ae.Cause).Str("user_id", c.userID).Str("event", event).Msg("ws event failed")
	} else {
		log.Debug().Str("user_id", c.userID).Str("event", event).Str("code", ae.Code).Msg(ae.Message)
	}
	c.reply(EventError, errorAck{Event: event, Code: ae.Code, Error: ae.Message, Details: ae.Details})
}

// reply sends an event to this connection only.
func (c *Client) reply(event string, data any) {
	b, err := encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws encode")
		return
	}
	c.ns.hub.Reply(c, b)
}

// writePump owns all writes to the socket. Its keepalive tick also closes the
// connection once the session has expired.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.gw.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if c.gw.tokens.Status(c.session) == auth.StatusExpired {
				log.Info().Str("user_id", c.userID).Msg("ws session expired")
				msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, auth.ErrExpired.Error())
				_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
