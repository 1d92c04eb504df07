package services

import (
	"context"
	"errors"
	"testing"

	"photofeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUnfollowRoundTrip(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)

	before, err := env.graph.ListFollowing(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	following, err := env.graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))
	after, err := env.graph.ListFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	err = env.graph.Unfollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotFollowing)
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, []EventType{EventUserFollowed, EventUserUnfollowed}, env.events.types())
}

func TestSelfFollowAlwaysFails(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)

	assert.ErrorIs(t, env.graph.Follow(ctx, a.ID, a.ID), ErrSelfFollow)
	assert.ErrorIs(t, env.graph.Unfollow(ctx, a.ID, a.ID), ErrSelfFollow)

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	err := env.graph.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, env.graph.Unfollow(ctx, a.ID, a.ID), ErrSelfFollow)
}

func TestFollowTwiceIsConflict(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	assert.ErrorIs(t, env.graph.Follow(ctx, a.ID, b.ID), ErrAlreadyFollowing)

	followers, err := env.graph.ListFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UserID{a.ID}, followers)
}

func TestFollowUnknownUser(t *testing.T) {
	env := setupTestDB(t)
	a := env.createUser(t)

	err := env.graph.Follow(context.Background(), a.ID, a.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowerListingsAndCounts(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	a := env.createUser(t)
	b := env.createUser(t)
	c := env.createUser(t)

	require.NoError(t, env.graph.Follow(ctx, a.ID, c.ID))
	require.NoError(t, env.graph.Follow(ctx, b.ID, c.ID))
	require.NoError(t, env.graph.Follow(ctx, c.ID, a.ID))

	followers, err := env.graph.FollowerUsers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	ids := []models.UserID{followers[0].ID, followers[1].ID}
	assert.ElementsMatch(t, []models.UserID{a.ID, b.ID}, ids)
	assert.NotEmpty(t, followers[0].Username)

	following, err := env.graph.FollowingUsers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, a.Username, following[0].Username)

	nFollowers, nFollowing, err := env.graph.Counts(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, nFollowers)
	assert.EqualValues(t, 1, nFollowing)

	_, err = env.graph.FollowerUsers(ctx, c.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStoreErrorKeepsDomainErrors(t *testing.T) {
	assert.Same(t, ErrPostNotFound, storeError("op", ErrPostNotFound))
	assert.Nil(t, storeError("op", nil))

	err := storeError("op", errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, storeError("op", context.DeadlineExceeded), ErrStoreUnavailable)
}

func TestGraphCountersDisabledWithoutRedis(t *testing.T) {
	var counters *GraphCounters
	ctx := context.Background()

	require.NoError(t, counters.Adjust(ctx, 1, CounterFollowers, 1))
	require.NoError(t, counters.Set(ctx, 1, 3, 4))
	_, _, ok, err := counters.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	scheduler, err := StartCounterReconciler("@every 1m")
	require.NoError(t, err)
	assert.Nil(t, scheduler)
}
