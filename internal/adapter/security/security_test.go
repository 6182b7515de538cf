package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTIssuer_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTIssuer("short", time.Hour)
	assert.Error(t, err)

	_, err = NewJWTIssuer(testSecret, 0)
	assert.Error(t, err)
}

func TestJWT_RoundTrip(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := issuer.IssueToken("alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	id, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestJWT_Expired(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.IssueToken("alice", "alice@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = issuer.ValidateToken(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.EqualError(t, err, "Invalid or expired token")
}

func TestJWT_RejectsForeignAndMalformedTokens(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewJWTIssuer(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)

	foreign, err := other.IssueToken("mallory", "m@example.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "mallory",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, token := range []string{foreign, none, "", "not.a.token"} {
		_, err := issuer.ValidateToken(token)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized), "token %q", token)
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, h.Compare(hash, "s3cret"))
	assert.False(t, h.Compare(hash, "wrong"))
	assert.False(t, h.Compare("not-a-hash", "s3cret"))
}

func TestNewBcryptHasher_DefaultsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}
