package services

import (
	"context"
	"testing"
	"time"

	"photofeed/db"
	"photofeed/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis поднимает Redis в процессе и включает кеш счетчиков
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *GraphCounters) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counters := NewGraphCounters(client, time.Hour)
	graphCounters = counters
	t.Cleanup(func() {
		graphCounters = nil
		_ = client.Close()
	})
	return mr, counters
}

func TestGraphCountersColdKeyNotAdjusted(t *testing.T) {
	mr, counters := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, counters.Adjust(ctx, 1, CounterFollowers, 1))
	assert.False(t, mr.Exists(counters.key(1)))

	_, _, ok, err := counters.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphCountersWarmKeyAdjusted(t *testing.T) {
	mr, counters := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, counters.Set(ctx, 1, 3, 4))
	assert.Equal(t, time.Hour, mr.TTL(counters.key(1)))

	require.NoError(t, counters.Adjust(ctx, 1, CounterFollowers, 1))
	require.NoError(t, counters.Adjust(ctx, 1, CounterFollowing, -1))

	followers, following, ok, err := counters.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 4, followers)
	assert.EqualValues(t, 3, following)
}

func TestGraphCountersClampAtZero(t *testing.T) {
	_, counters := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, counters.Set(ctx, 1, 0, 2))
	require.NoError(t, counters.Adjust(ctx, 1, CounterFollowers, -1))

	followers, following, ok, err := counters.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, followers)
	assert.EqualValues(t, 2, following)
}

func TestGraphCountersWarmExpiresEarly(t *testing.T) {
	mr, counters := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, counters.Warm(ctx, 1, 5, 6))
	ttl := mr.TTL(counters.key(1))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(2 * time.Minute)
	_, _, ok, err := counters.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphCountersCachedUsers(t *testing.T) {
	mr, counters := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, counters.Set(ctx, 3, 1, 1))
	require.NoError(t, counters.Set(ctx, 5, 2, 2))
	mr.HSet(COUNTER_KEY_PREFIX+"bogus", "followers", "1")
	require.NoError(t, mr.Set("unrelated:7", "x"))

	var ids []models.UserID
	require.NoError(t, counters.CachedUsers(ctx, func(id models.UserID) error {
		ids = append(ids, id)
		return nil
	}))
	assert.ElementsMatch(t, []models.UserID{3, 5}, ids)
}

func TestCountsUseCache(t *testing.T) {
	env := setupTestDB(t)
	mr, counters := setupTestRedis(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)
	c := env.createUser(t)

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	followers, following, err := env.graph.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, followers)
	assert.Zero(t, following)
	assert.True(t, mr.Exists(counters.key(b.ID)))

	require.NoError(t, env.graph.Follow(ctx, c.ID, b.ID))
	cached, _, ok, err := counters.Get(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, cached)

	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))
	followers, _, err = env.graph.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, followers)
}

func TestReconcileCountersRepairsDrift(t *testing.T) {
	env := setupTestDB(t)
	mr, counters := setupTestRedis(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)

	_, _, err := env.graph.Counts(ctx, b.ID)
	require.NoError(t, err)

	// подписка мимо кеша: как если бы Adjust не дошел до Redis
	edge := &models.Follow{FollowerID: a.ID, FollowingID: b.ID, CreatedAt: env.at(0)}
	require.NoError(t, db.GetWriteDB(ctx).Create(edge).Error)

	stale, _, ok, err := counters.Get(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, stale)

	fixed, err := ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	followers, following, ok, err := counters.Get(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 1, followers)
	assert.Zero(t, following)
	assert.Equal(t, time.Hour, mr.TTL(counters.key(b.ID)))

	fixed, err = ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestStartCounterReconcilerWithRedis(t *testing.T) {
	setupTestRedis(t)

	_, err := StartCounterReconciler("not a schedule")
	assert.Error(t, err)

	scheduler, err := StartCounterReconciler("@every 1h")
	require.NoError(t, err)
	require.NotNil(t, scheduler)
	scheduler.Stop()
}
