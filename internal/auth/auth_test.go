package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), time.Minute)

	token, err := mgr.GenerateAccessToken(42, "maria", "admin")
	require.NoError(t, err)

	claims, err := mgr.ParseAndValidate(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "maria", claims.Login)
}

func TestParseRejectsOtherSecretAndAudience(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), time.Minute)
	other := NewJWTManager(strings.Repeat("x", 32), time.Minute)

	token, err := other.GenerateAccessToken(1, "a", "usuario")
	require.NoError(t, err)
	_, err = mgr.ParseAndValidate(token)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		Audience:  jwt.ClaimStrings{"outro"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := foreign.SignedString([]byte(strings.Repeat("s", 32)))
	require.NoError(t, err)
	_, err = mgr.ParseAndValidate(signed)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), -time.Minute)
	token, err := mgr.GenerateAccessToken(1, "a", "usuario")
	require.NoError(t, err)
	_, err = mgr.ParseAndValidate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPassword(t *testing.T) {
	hash, err := Hash("segredo1")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword("segredo1", hash))
	assert.ErrorIs(t, CheckPassword("outra", hash), ErrPasswordMismatch)
	assert.ErrorIs(t, CheckPassword("segredo1", "lixo"), ErrPasswordMismatch)
}

func TestRefreshToken(t *testing.T) {
	raw, hashed, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, HashRefreshToken(raw), hashed)
	assert.Equal(t, "refresh:siscert:"+hashed, RefreshRedisKey(hashed))
}
