package ws

import (
	"context"
	"encoding/json"
)

// HandlerFunc processes one inbound event. A returned error becomes an error
// acknowledgment to the sending connection.
type HandlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// Namespace groups the events served on one endpoint with the hub their
// results are delivered through.
type Namespace struct {
	hub      *Hub
	handlers map[string]HandlerFunc
}

func NewNamespace(hub *Hub) *Namespace {
	return &Namespace{hub: hub, handlers: make(map[string]HandlerFunc)}
}

func (ns *Namespace) Name() string { return ns.hub.Name() }

// Handle registers h for event, replacing any earlier handler.
func (ns *Namespace) Handle(event string, h HandlerFunc) {
	ns.handlers[event] = h
}

// emit encodes once and delivers to each distinct user's private channel.
func (ns *Namespace) emit(event string, data any, userIDs ...string) error {
	b, err := encode(event, data)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ns.hub.Emit(id, b)
	}
	return nil
}
