package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OnlineWindow is the freshness window for the online indicator. A user is
// online iff they touched presence within this window; expiry is computed
// lazily on query, no background eviction.
const OnlineWindow = 30 * time.Second

type Tracker struct {
	rdb    *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{
		rdb:    rdb,
		window: OnlineWindow,
		now:    time.Now,
	}
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Touch records now as the user's last-activity instant. Concurrent touches
// from multiple connections of the same user simply overwrite: last write
// wins, a stale overwrite only matters within the window anyway.
func (t *Tracker) Touch(ctx context.Context, userID int64) error {
	ts := strconv.FormatInt(t.now().UnixNano(), 10)
	return t.rdb.Set(ctx, presenceKey(userID), ts, 0).Err()
}

// IsOnline reports whether the user touched presence within the window.
// A user with no recorded activity is offline, not an error.
func (t *Tracker) IsOnline(ctx context.Context, userID int64) (bool, error) {
	val, err := t.rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, err
	}

	return t.now().Sub(time.Unix(0, nanos)) < t.window, nil
}
