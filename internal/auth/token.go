package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode failures. The error text is the reason reported to a refused client.
var (
	ErrIntegrity    = errors.New("integrity-error")
	ErrInvalidToken = errors.New("invalid-token")
	ErrExpired      = errors.New("expired")
)

// ExpirationStatus classifies a session against the current time.
type ExpirationStatus string

const (
	StatusActive  ExpirationStatus = "active"
	StatusGrace   ExpirationStatus = "grace"
	StatusExpired ExpirationStatus = "expired"
)

// Identity is what a session token vouches for.
type Identity struct {
	ID       string
	Username string
	Email    string
}

// Session is a decoded token.
type Session struct {
	Identity
	Issued  time.Time
	Expires time.Time
}

// EncodeResult is handed to the client at login.
type EncodeResult struct {
	Token   string    `json:"token"`
	Issued  time.Time `json:"issued"`
	Expires time.Time `json:"expires"`
}

type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS512 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	grace  time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl, grace time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, grace: grace, now: time.Now}
}

// Encode packages the identity with issued/expires and signs it.
func (s *TokenService) Encode(id Identity) (EncodeResult, error) {
	// NumericDate has second precision; truncate so Decode round-trips.
	issued := s.now().UTC().Truncate(time.Second)
	expires := issued.Add(s.ttl)
	claims := Claims{
		Username: id.Username,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return EncodeResult{}, err
	}
	return EncodeResult{Token: token, Issued: issued, Expires: expires}, nil
}

// Decode verifies the signature and returns the session. Expiry is not checked
// here; see Status.
func (s *TokenService) Decode(token string) (Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithoutClaimsValidation())
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Session{}, ErrIntegrity
	case err != nil:
		return Session{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidToken
	}
	return Session{
		Identity: Identity{ID: claims.Subject, Username: claims.Username, Email: claims.Email},
		Issued:   claims.IssuedAt.Time.UTC(),
		Expires:  claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Status is active before Expires, grace for the grace window after it, and
// expired afterwards.
func (s *TokenService) Status(sess Session) ExpirationStatus {
	now := s.now()
	switch {
	case now.Before(sess.Expires):
		return StatusActive
	case now.Before(sess.Expires.Add(s.grace)):
		return StatusGrace
	default:
		return StatusExpired
	}
}

// Authenticate decodes token and rejects expired sessions. Active and grace
// sessions are both accepted.
func (s *TokenService) Authenticate(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	sess, err := s.Decode(token)
	if err != nil {
		return Session{}, err
	}
	if s.Status(sess) == StatusExpired {
		return Session{}, ErrExpired
	}
	return sess, nil
}

// RejectionMessage is the reason string a refused client receives.
func RejectionMessage(err error) string {
	return "Failed to decode or validate authorization token. Reason: " + err.Error() + "."
}
