package state

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis_Success(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	defer mockRedis.Close()

	client, err := InitRedis(mockRedis.Addr(), "", 0)
	require.NoError(t, err, "InitRedis should not return an error")
	require.NotNil(t, client, "Redis client should not be nil")

	pong := client.Ping(context.Background())
	assert.NoError(t, pong.Err(), "Should be able to ping Redis")

	client.Close()
}

func TestInitRedis_WithPassword(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	defer mockRedis.Close()

	password := "testpassword"
	mockRedis.RequireAuth(password)

	client, err := InitRedis(mockRedis.Addr(), password, 0)
	require.NoError(t, err, "InitRedis should work with correct password")
	require.NotNil(t, client)

	client.Close()
}

func TestInitRedis_WithWrongPassword(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	defer mockRedis.Close()

	mockRedis.RequireAuth("correctPassword")

	client, err := InitRedis(mockRedis.Addr(), "wrongpassword", 0)
	assert.Error(t, err, "InitRedis should return error with wrong password")
	assert.Nil(t, client, "Redis client should be nil on error")
}
