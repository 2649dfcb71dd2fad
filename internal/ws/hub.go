package ws

import (
	"context"
	"sync/atomic"

	"github.com/mjhajdugaNext/messenger/internal/metrics"
)

const sendBuffer = 256

type delivery struct {
	userID  string
	client  *Client // when set, only this connection receives the frame
	payload []byte
}

// Hub is one namespace's channel registry: user id -> live connections. Only
// the Run goroutine touches the map or closes a client's send channel.
type Hub struct {
	name       string
	channels   map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	online     int32
	done       chan struct{}
}

func NewHub(name string) *Hub {
	return &Hub{
		name:       name,
		channels:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, sendBuffer),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Name() string { return h.name }

// Run owns the registry until ctx is done, then closes every remaining
// connection's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, members := range h.channels {
				for c := range members {
					h.drop(c)
				}
			}
			return
		case c := <-h.register:
			members := h.channels[c.userID]
			if members == nil {
				members = make(map[*Client]struct{})
				h.channels[c.userID] = members
			}
			members[c] = struct{}{}
			atomic.AddInt32(&h.online, 1)
			metrics.WsConnections.WithLabelValues(h.name).Inc()
		case c := <-h.unregister:
			if _, ok := h.channels[c.userID][c]; ok {
				h.drop(c)
			}
		case d := <-h.deliver:
			if d.client != nil {
				if _, ok := h.channels[d.client.userID][d.client]; ok {
					h.push(d.client, d.payload)
				}
				continue
			}
			for c := range h.channels[d.userID] {
				h.push(c, d.payload)
			}
		}
	}
}

// push queues payload or, if the client cannot keep up, disconnects it.
func (h *Hub) push(c *Client, payload []byte) {
	select {
	case c.send <- payload:
		metrics.FanoutDeliveries.WithLabelValues(h.name).Inc()
	default:
		metrics.SlowClientsDropped.WithLabelValues(h.name).Inc()
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	members := h.channels[c.userID]
	delete(members, c)
	if len(members) == 0 {
		delete(h.channels, c.userID)
	}
	atomic.AddInt32(&h.online, -1)
	metrics.WsConnections.WithLabelValues(h.name).Dec()
	close(c.send)
}

// Register adds c to its user's channel. It reports false once the hub has
// stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Emit delivers payload to every live connection of userID. A user with no
// connections simply misses it.
func (h *Hub) Emit(userID string, payload []byte) {
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
	case <-h.done:
	}
}

// Reply delivers payload to c alone, if it is still registered.
func (h *Hub) Reply(c *Client, payload []byte) {
	select {
	case h.deliver <- delivery{client: c, payload: payload}:
	case <-h.done:
	}
}

// Online returns the number of registered connections.
func (h *Hub) Online() int { return int(atomic.LoadInt32(&h.online)) }
