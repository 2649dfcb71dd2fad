package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Identity{ID: "u-1", Username: "alice", Email: "alice@x.com"}

func newTestService(now time.Time) *TokenService {
	s := NewTokenService("test-secret", 15*time.Minute, time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)
	s := newTestService(now)

	res, err := s.Encode(alice)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, now.Truncate(time.Second), res.Issued)
	assert.Equal(t, res.Issued.Add(15*time.Minute), res.Expires)

	sess, err := s.Decode(res.Token)
	require.NoError(t, err)
	assert.Equal(t, alice, sess.Identity)
	assert.True(t, res.Issued.Equal(sess.Issued))
	assert.True(t, res.Expires.Equal(sess.Expires))
}

func TestDecode_Failures(t *testing.T) {
	s := newTestService(time.Now())
	res, err := s.Encode(alice)
	require.NoError(t, err)

	other := NewTokenService("wrong-secret", time.Minute, 0)
	parts := strings.Split(res.Token, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Username: "mallory"}).SignedString([]byte("x"))
	require.NoError(t, err)
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]
	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *TokenService
		token   string
		wantErr error
	}{
		{"wrong secret", other, res.Token, ErrIntegrity},
		{"tampered payload", s, tampered, ErrIntegrity},
		{"unexpected algorithm", s, hs256, ErrIntegrity},
		{"garbage", s, "invalid.token.here", ErrInvalidToken},
		{"empty", s, "", ErrInvalidToken},
		{"not a jwt", s, "hello", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Decode(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_MissingSubjectIsInvalid(t *testing.T) {
	s := newTestService(time.Now())
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Username: "x"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_DoesNotFailOnExpiry(t *testing.T) {
	issuedAt := time.Now().Add(-48 * time.Hour)
	s := newTestService(issuedAt)
	res, err := s.Encode(alice)
	require.NoError(t, err)

	s.now = time.Now
	sess, err := s.Decode(res.Token)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, s.Status(sess))
}

func TestStatus(t *testing.T) {
	expires := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sess := Session{Identity: alice, Expires: expires}

	tests := []struct {
		name string
		now  time.Time
		want ExpirationStatus
	}{
		{"well before expiry", expires.Add(-10 * time.Minute), StatusActive},
		{"at expiry", expires, StatusGrace},
		{"inside grace", expires.Add(59 * time.Minute), StatusGrace},
		{"grace ended", expires.Add(time.Hour), StatusExpired},
		{"long after", expires.Add(24 * time.Hour), StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTestService(tt.now).Status(sess))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(issued)
	res, err := s.Encode(alice)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(30 * time.Minute) }
	sess, err := s.Authenticate(res.Token)
	require.NoError(t, err, "grace sessions are accepted")
	assert.Equal(t, "u-1", sess.ID)

	s.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = s.Authenticate(res.Token)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = s.Authenticate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectionMessage(t *testing.T) {
	assert.Equal(t,
		"Failed to decode or validate authorization token. Reason: invalid-token.",
		RejectionMessage(ErrInvalidToken))
}
