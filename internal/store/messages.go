package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageFilter selects messages. Participant matches either side.
type MessageFilter struct {
	IDs         []string
	Sender      string
	Receiver    string
	Participant string
}

// MessagePatch lists the fields to overwrite. Nil fields are left unchanged.
type MessagePatch struct {
	Content      *string
	Type         *models.MessageType
	DateReceived *time.Time
	DateRead     *time.Time
	Archived     *bool
}

type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (s *Messages) Find(ctx context.Context, f MessageFilter) ([]models.Message, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []models.Message{}, nil
	}
	var msgs []models.Message
	if err := s.scope(ctx, f).Order("date_created, id").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: find messages: %w", err)
	}
	return msgs, nil
}

func (s *Messages) FindOne(ctx context.Context, f MessageFilter) (*models.Message, error) {
	var m models.Message
	err := s.scope(ctx, f).Order("date_created, id").First(&m).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find one message: %w", err)
	}
	return &m, nil
}

func (s *Messages) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find message %s: %w", id, err)
	}
	return &m, nil
}

func (s *Messages) Insert(ctx context.Context, m *models.Message) (*models.Message, error) {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("store: insert message: %w", err)
	}
	return s.FindByID(ctx, m.ID)
}

func (s *Messages) UpdateByID(ctx context.Context, id string, p MessagePatch) (*models.Message, error) {
	var m models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if p.Content != nil {
			m.Content = *p.Content
		}
		if p.Type != nil {
			m.Type = *p.Type
		}
		if p.DateReceived != nil {
			t := *p.DateReceived
			m.DateReceived = &t
		}
		if p.DateRead != nil {
			t := *p.DateRead
			m.DateRead = &t
		}
		if p.Archived != nil {
			m.Archived = *p.Archived
		}
		return tx.Save(&m).Error
	})
	if absent(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: update message %s: %w", id, err)
	}
	return &m, nil
}

func (s *Messages) DeleteByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := s.FindByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: delete message %s: %w", id, err)
	}
	return m, nil
}

func (s *Messages) scope(ctx context.Context, f MessageFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Message{})
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Sender != "" {
		q = q.Where("sender = ?", f.Sender)
	}
	if f.Receiver != "" {
		q = q.Where("receiver = ?", f.Receiver)
	}
	if f.Participant != "" {
		q = q.Where("sender = ? OR receiver = ?", f.Participant, f.Participant)
	}
	return q
}
