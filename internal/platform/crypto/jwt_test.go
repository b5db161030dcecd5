package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "alice", RoleEditor, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Sub)
	assert.Equal(t, RoleEditor, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "alice", RoleEditor, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("secret", "alice", RoleEditor, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken("", "alice", RoleEditor, time.Hour)
	assert.Error(t, err)
}
