package ws

import (
	"context"
	"encoding/json"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/metrics"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/service"
)

// MessageEngine creates messages for the messages namespace.
type MessageEngine interface {
	CreateMessage(ctx context.Context, in service.MessageInput) (*models.Message, error)
}

// NewMessagesNamespace serves message events on hub.
func NewMessagesNamespace(hub *Hub, msgs MessageEngine) *Namespace {
	ns := NewNamespace(hub)
	ns.Handle("messageCreate", func(ctx context.Context, c *Client, data json.RawMessage) error {
		var in service.MessageInput
		if len(data) == 0 || json.Unmarshal(data, &in) != nil {
			return apperr.ValidationError("payload must be a message object")
		}
		// Connections only send as themselves.
		switch in.Sender {
		case "":
			in.Sender = c.userID
		case c.userID:
		default:
			return apperr.ValidationError("sender must be the connected user",
				apperr.FieldError{Field: "sender", Message: "sender must be the connected user"})
		}
		m, err := msgs.CreateMessage(ctx, in)
		if err != nil {
			return err
		}
		metrics.MessagesCreated.Inc()
		if err := ns.emit(EventMessageCreated, m, m.Sender, m.Receiver); err != nil {
			return apperr.Internalf(err, "encode %s", EventMessageCreated)
		}
		return nil
	})
	return ns
}
