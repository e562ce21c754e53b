package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)

	token, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, "user-1", token.UserID)
	assert.WithinDuration(t, token.IssuedAt.Add(15*time.Minute), token.ExpiresAt, time.Second)

	claims, err := tm.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, token.ID, claims.ID)
	assert.WithinDuration(t, token.ExpiresAt, claims.Expiry(), time.Second)
}

func TestTokenManager_TokenIDsAreUnique(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	a, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	b, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, err := tm.GenerateToken("user-1")
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(token.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenManager("other", 5).GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 5).ParseToken(token.Token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsUnsignedTokens(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", ID: "x"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 5).ParseToken(raw)
	assert.Error(t, err)
}
