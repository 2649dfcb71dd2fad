package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/store"
	"github.com/mjhajdugaNext/messenger/internal/validate"

	"golang.org/x/text/unicode/norm"
)

// UserService is the account façade: registration, login, presence and
// self lookups. It is the only component that touches secrets.
type UserService struct {
	users  UserStore
	creds  CredentialHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users UserStore, creds CredentialHasher, tokens TokenIssuer) *UserService {
	return &UserService{users: users, creds: creds, tokens: tokens, now: time.Now}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a user with empty relationship sets and active=false.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = norm.NFC.String(strings.TrimSpace(in.Username))
	err := validate.New().
		Required("email", in.Email).
		Email("email", in.Email).
		Required("username", in.Username).
		Required("password", in.Password).
		Err()
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindOne(ctx, store.UserFilter{Email: in.Email})
	if err != nil {
		return nil, apperr.Internalf(err, "register lookup")
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internalf(err, "register hash")
	}
	u, err := s.users.Insert(ctx, &models.User{
		Email:                in.Email,
		Username:             in.Username,
		SecretHash:           hash,
		Friends:              models.IDSet{},
		FriendsWaitingRoom:   models.IDSet{},
		InSomeoneWaitingRoom: models.IDSet{},
	})
	if err != nil {
		return nil, apperr.Internalf(err, "register insert")
	}
	pub := u.Public()
	return &pub, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (auth.EncodeResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.New().Required("email", in.Email).Required("password", in.Password).Err(); err != nil {
		return auth.EncodeResult{}, err
	}
	u, err := s.users.FindOne(ctx, store.UserFilter{Email: in.Email})
	if err != nil {
		return auth.EncodeResult{}, apperr.Internalf(err, "login lookup")
	}
	if u == nil || !s.creds.Compare(in.Password, u.SecretHash) {
		return auth.EncodeResult{}, ErrInvalidCredentials
	}
	res, err := s.tokens.Encode(auth.Identity{ID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return auth.EncodeResult{}, apperr.Internalf(err, "login encode")
	}
	return res, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.PrivateUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf(err, "get user")
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	p := u.Private()
	return &p, nil
}

// SetPresence records the has-a-live-connection transition. Going offline
// stamps lastActive; coming online leaves it alone.
func (s *UserService) SetPresence(ctx context.Context, id string, active bool) error {
	patch := store.UserPatch{Active: &active}
	if !active {
		now := s.now().UTC().Truncate(time.Millisecond)
		patch.LastActive = &now
	}
	if _, err := s.users.UpdateByID(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internalf(err, "set presence")
	}
	return nil
}

// ResetPresence clears active flags left behind by a process that stopped
// without detaching its connections. Call it before accepting connections.
func (s *UserService) ResetPresence(ctx context.Context) (int64, error) {
	n, err := s.users.ResetPresence(ctx, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return 0, apperr.Internalf(err, "reset presence")
	}
	return n, nil
}
