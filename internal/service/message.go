package service

import (
	"context"
	"errors"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/store"
	"github.com/mjhajdugaNext/messenger/internal/validate"
)

// MessageService is the message engine. It stores messages and leaves
// delivery to the gateway.
type MessageService struct {
	msgs MessageStore
	now  func() time.Time
}

func NewMessageService(msgs MessageStore) *MessageService {
	return &MessageService{msgs: msgs, now: time.Now}
}

type MessageInput struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	Type     string `json:"type"`
}

// MessageUpdate is the editable subset of a message. Nil fields are kept.
type MessageUpdate struct {
	Content      *string    `json:"content"`
	Type         *string    `json:"type"`
	DateReceived *time.Time `json:"dateReceived"`
	DateRead     *time.Time `json:"dateRead"`
	Archived     *bool      `json:"archived"`
}

// CreateMessage validates and stores a new message stamped with the current
// time. Receipt and read dates start empty. Content is stored verbatim, so
// only the empty string is rejected.
func (s *MessageService) CreateMessage(ctx context.Context, in MessageInput) (*models.Message, error) {
	err := validate.New().
		Required("sender", in.Sender).
		Required("receiver", in.Receiver).
		Custom("content", in.Content == "", "content is required").
		Required("type", in.Type).
		OneOf("type", in.Type, models.MessageTypes...).
		Err()
	if err != nil {
		return nil, err
	}
	m, err := s.msgs.Insert(ctx, &models.Message{
		Sender:      in.Sender,
		Receiver:    in.Receiver,
		Content:     in.Content,
		Type:        models.MessageType(in.Type),
		DateCreated: s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return nil, apperr.Internalf(err, "create message")
	}
	return m, nil
}

func (s *MessageService) GetMessages(ctx context.Context) ([]models.Message, error) {
	msgs, err := s.msgs.Find(ctx, store.MessageFilter{})
	if err != nil {
		return nil, apperr.Internalf(err, "list messages")
	}
	return msgs, nil
}

// MessagesFor lists messages userID sent or received, oldest first.
func (s *MessageService) MessagesFor(ctx context.Context, userID string) ([]models.Message, error) {
	msgs, err := s.msgs.Find(ctx, store.MessageFilter{Participant: userID})
	if err != nil {
		return nil, apperr.Internalf(err, "list messages for %s", userID)
	}
	return msgs, nil
}

func (s *MessageService) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := s.msgs.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf(err, "get message %s", id)
	}
	if m == nil {
		return nil, ErrMessageNotFound
	}
	return m, nil
}

func (s *MessageService) UpdateMessageByID(ctx context.Context, id string, in MessageUpdate) (*models.Message, error) {
	v := validate.New()
	if in.Content != nil {
		v.Custom("content", *in.Content == "", "content is required")
	}
	if in.Type != nil {
		v.Required("type", *in.Type).OneOf("type", *in.Type, models.MessageTypes...)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	patch := store.MessagePatch{
		Content:      in.Content,
		DateReceived: utcMillis(in.DateReceived),
		DateRead:     utcMillis(in.DateRead),
		Archived:     in.Archived,
	}
	if in.Type != nil {
		t := models.MessageType(*in.Type)
		patch.Type = &t
	}
	m, err := s.msgs.UpdateByID(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, apperr.Internalf(err, "update message %s", id)
	}
	return m, nil
}

// DeleteMessageByID returns the removed message, or nil when id was unknown.
func (s *MessageService) DeleteMessageByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := s.msgs.DeleteByID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf(err, "delete message %s", id)
	}
	return m, nil
}

func utcMillis(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
