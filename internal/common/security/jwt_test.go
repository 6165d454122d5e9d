package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	InitJWT([]byte("test-secret"))

	token, err := GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	decoded, err := TokenAuth.Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestGetUserIDFromClaimsRejectsMissing(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{"sub": "alice"})
	assert.Error(t, err)
	_, err = GetUserIDFromClaims(map[string]interface{}{"user_id": 42})
	assert.Error(t, err)
}
