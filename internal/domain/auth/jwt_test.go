package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("0123456789abcdef"))

	token, expiresAt, err := svc.GenerateAccessToken("u-1", "ops@example.com", []string{"admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, []string{"admin"}, user.Roles)
	assert.True(t, user.IsAdmin)

	p := user.Principal()
	assert.Equal(t, "admin", p.Role)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("0123456789abcdef"))
	verifier := NewJWTService(DefaultJWTConfig("fedcba9876543210"))

	token, _, err := issuer.GenerateAccessToken("u-1", "ops@example.com", nil)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	cfg := DefaultJWTConfig("0123456789abcdef")
	cfg.AccessTokenTTL = -time.Minute
	svc := &JWTService{config: cfg}

	token, _, err := svc.GenerateAccessToken("u-1", "ops@example.com", nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsOtherIssuer(t *testing.T) {
	cfg := DefaultJWTConfig("0123456789abcdef")
	cfg.Issuer = "someone-else"
	token, _, err := NewJWTService(cfg).GenerateAccessToken("u-1", "", nil)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("0123456789abcdef")).ValidateToken(token)
	assert.Error(t, err)
}
