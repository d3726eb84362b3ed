package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *time.Time) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	now := time.Now()
	tracker := NewTracker(rdb)
	tracker.now = func() time.Time { return now }
	return tracker, &now
}

func TestTracker_OnlineAfterTouch(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.Touch(ctx, 1))

	online, err := tracker.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, online, "user should be online immediately after touch")
}

func TestTracker_StillOnlineWithinWindow(t *testing.T) {
	tracker, now := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.Touch(ctx, 1))

	*now = now.Add(10 * time.Second)
	online, err := tracker.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, online, "user should still be online 10s after touch")
}

func TestTracker_OfflineAfterWindowLapses(t *testing.T) {
	tracker, now := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.Touch(ctx, 1))

	*now = now.Add(31 * time.Second)
	online, err := tracker.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, online, "user should be offline once the window lapses")
}

func TestTracker_TouchRefreshesWindow(t *testing.T) {
	tracker, now := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.Touch(ctx, 1))
	*now = now.Add(25 * time.Second)
	require.NoError(t, tracker.Touch(ctx, 1))

	*now = now.Add(25 * time.Second)
	online, err := tracker.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, online, "second touch should restart the window")
}

func TestTracker_UnknownUserIsOffline(t *testing.T) {
	tracker, _ := newTestTracker(t)

	online, err := tracker.IsOnline(context.Background(), 999)
	require.NoError(t, err, "missing activity is not an error")
	assert.False(t, online)
}
