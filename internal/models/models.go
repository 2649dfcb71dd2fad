package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Email      string     `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Username   string     `gorm:"size:64;not null" json:"username"`
	SecretHash string     `gorm:"not null" json:"-"`
	Active     bool       `gorm:"index;not null" json:"active"`
	LastActive *time.Time `json:"lastActive"`
	// Mutual relationship: b in a.Friends iff a in b.Friends.
	Friends IDSet `gorm:"serializer:json;type:text" json:"friends"`
	// Invitations received and not yet accepted.
	FriendsWaitingRoom IDSet `gorm:"serializer:json;type:text" json:"friendsWaitingRoom"`
	// Invitations sent and not yet accepted.
	InSomeoneWaitingRoom IDSet     `gorm:"serializer:json;type:text" json:"inSomeoneWaitingRoom"`
	CreatedAt            time.Time `json:"-"`
	UpdatedAt            time.Time `json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// PrivateUser is what a user may see about themselves.
type PrivateUser struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	Username             string     `json:"username"`
	Active               bool       `json:"active"`
	LastActive           *time.Time `json:"lastActive"`
	Friends              IDSet      `json:"friends"`
	FriendsWaitingRoom   IDSet      `json:"friendsWaitingRoom"`
	InSomeoneWaitingRoom IDSet      `json:"inSomeoneWaitingRoom"`
}

// PublicUser is what other users may see.
type PublicUser struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Active     bool       `json:"active"`
	LastActive *time.Time `json:"lastActive"`
}

func (u User) Private() PrivateUser {
	return PrivateUser{
		ID:                   u.ID,
		Email:                u.Email,
		Username:             u.Username,
		Active:               u.Active,
		LastActive:           u.LastActive,
		Friends:              u.Friends.Clone(),
		FriendsWaitingRoom:   u.FriendsWaitingRoom.Clone(),
		InSomeoneWaitingRoom: u.InSomeoneWaitingRoom.Clone(),
	}
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Active:     u.Active,
		LastActive: u.LastActive,
	}
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
	MessageVideo MessageType = "video"
	MessageMixed MessageType = "mixed"
)

// MessageTypes lists every accepted MessageType.
var MessageTypes = []string{string(MessageText), string(MessageAudio), string(MessageVideo), string(MessageMixed)}

type Message struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	Sender       string      `gorm:"index;size:36" json:"sender"`
	Receiver     string      `gorm:"index;size:36;not null" json:"receiver"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	Type         MessageType `gorm:"size:16;not null" json:"type"`
	DateCreated  time.Time   `gorm:"not null" json:"dateCreated"`
	DateReceived *time.Time  `json:"dateReceived"`
	DateRead     *time.Time  `json:"dateRead"`
	Archived     bool        `gorm:"not null" json:"archived"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
