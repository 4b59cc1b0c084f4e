package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT(42, "seller", "ana@craft.test", "s3cret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "seller", claims.Role)
	assert.Equal(t, "ana@craft.test", claims.Email)
	assert.Equal(t, "artisanhub", claims.Issuer)
}

func TestParseJWTRejectsBadTokens(t *testing.T) {
	token, err := GenerateJWT(1, "customer", "", "s3cret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(1, "customer", "", "s3cret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "s3cret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseJWT("garbage", "s3cret")
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := GenerateJWT(1, "customer", "", "", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = ParseJWT("x", "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
