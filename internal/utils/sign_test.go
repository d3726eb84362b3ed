package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestIssueAndVerifyToken(t *testing.T) {
	key := testKey(t)

	token, err := IssueToken(42, "alice", key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAndVerifySign(token, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Sub)
	assert.Equal(t, "alice", claims.Username)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestParseAndVerifySign_WrongKey(t *testing.T) {
	key := testKey(t)
	otherKey := testKey(t)

	token, err := IssueToken(42, "alice", key)
	require.NoError(t, err)

	_, err = ParseAndVerifySign(token, &otherKey.PublicKey)
	assert.Error(t, err, "token signed by a different key must not verify")
}

func TestParseAndVerifySign_Garbage(t *testing.T) {
	key := testKey(t)

	_, err := ParseAndVerifySign("not.a.token", &key.PublicKey)
	assert.Error(t, err)
}
