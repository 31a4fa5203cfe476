package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edms/internal/config"
	"edms/internal/shared/model"
)

var testAuthCfg = config.AuthConfig{
	JWTSecret: "test-secret",
	TokenTTL:  24 * time.Hour,
}

var testPublicUser = &model.PublicUser{
	UserID:    "alice",
	FirstName: "Alice",
	LastName:  "Smith",
	Email:     "alice@example.com",
	Role:      model.UserRoleContributor,
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("s3cret", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testAuthCfg, testPublicUser)
	require.NoError(t, err)

	claims, err := ParseToken(testAuthCfg, token)
	require.NoError(t, err)

	user := claims.User()
	assert.Equal(t, "alice", user.UserID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, model.UserRoleContributor, user.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testAuthCfg, testPublicUser)
	require.NoError(t, err)

	other := testAuthCfg
	other.JWTSecret = "different-secret"
	_, err = ParseToken(other, token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	cfg := testAuthCfg
	cfg.TokenTTL = -time.Minute

	token, err := GenerateToken(cfg, testPublicUser)
	require.NoError(t, err)

	_, err = ParseToken(testAuthCfg, token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken(testAuthCfg, "not.a.token")
	assert.Error(t, err)
}
