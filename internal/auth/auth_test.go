package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Generate("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := issuer.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").Generate("alice")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b").Validate(token)
	require.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Validate(token)
		require.Error(t, err, "token %q should not validate", token)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)

	require.True(t, CheckPasswordHash("hunter2", hash))
	require.False(t, CheckPasswordHash("hunter3", hash))
	require.False(t, CheckPasswordHash("hunter2", "not-a-hash"))
}
