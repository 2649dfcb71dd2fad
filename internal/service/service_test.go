package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/db/dbtest"
	"github.com/mjhajdugaNext/messenger/internal/keylock"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/store"
)

type fixture struct {
	users    *store.Users
	messages *store.Messages
	tokens   *auth.TokenService
	accounts *UserService
	friends  *FriendService
	msgs     *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	f := &fixture{
		users:    store.NewUsers(gdb),
		messages: store.NewMessages(gdb),
		tokens:   auth.NewTokenService("test-secret", 15*time.Minute, time.Hour),
	}
	f.accounts = NewUserService(f.users, auth.Credentials{Cost: bcrypt.MinCost}, f.tokens)
	f.friends = NewFriendService(f.users, keylock.New())
	f.msgs = NewMessageService(f.messages)
	return f
}

func (f *fixture) register(t *testing.T, name string) models.PublicUser {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), RegisterInput{
		Email:    name + "@x.com",
		Username: name,
		Password: "secret",
	})
	require.NoError(t, err)
	return *u
}

func (f *fixture) load(t *testing.T, id string) models.User {
	t.Helper()
	u, err := f.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return *u
}
