package service

import (
	"context"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/store"
)

// UserStore is the users collection of the document store.
type UserStore interface {
	Find(ctx context.Context, f store.UserFilter) ([]models.User, error)
	FindOne(ctx context.Context, f store.UserFilter) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateByID(ctx context.Context, id string, p store.UserPatch) (*models.User, error)
	DeleteByID(ctx context.Context, id string) (*models.User, error)
	ResetPresence(ctx context.Context, at time.Time) (int64, error)
}

// MessageStore is the messages collection of the document store.
type MessageStore interface {
	Find(ctx context.Context, f store.MessageFilter) ([]models.Message, error)
	FindOne(ctx context.Context, f store.MessageFilter) (*models.Message, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Insert(ctx context.Context, m *models.Message) (*models.Message, error)
	UpdateByID(ctx context.Context, id string, p store.MessagePatch) (*models.Message, error)
	DeleteByID(ctx context.Context, id string) (*models.Message, error)
}

// CredentialHasher hashes secrets at registration and compares them at login.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Compare(secret, hash string) bool
}

// TokenIssuer produces the session token the gateway consumes.
type TokenIssuer interface {
	Encode(id auth.Identity) (auth.EncodeResult, error)
}
