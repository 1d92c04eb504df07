package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"photofeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentTooLongCreatesNothing(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	owner := env.createUser(t)
	post := env.postAt(t, owner.ID, env.at(0))

	_, err := env.comments.AddComment(ctx, post.ID, owner.ID, strings.Repeat("ж", MaxCommentLength+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.comments.AddComment(ctx, post.ID, owner.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	count, err := env.comments.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = env.comments.AddComment(ctx, post.ID, owner.ID, strings.Repeat("ж", MaxCommentLength))
	require.NoError(t, err)
}

func TestAddCommentToMissingPost(t *testing.T) {
	env := setupTestDB(t)
	user := env.createUser(t)

	_, err := env.comments.AddComment(context.Background(), 42, user.ID, "hello")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = env.comments.ListByPost(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestListByPostNewestFirst(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	owner := env.createUser(t)
	author := env.createUser(t)
	post := env.postAt(t, owner.ID, env.at(0))

	var ids []models.CommentID
	for i, text := range []string{"first", "second", "third"} {
		at := env.at(i + 1)
		env.comments.now = func() time.Time { return at }
		comment, err := env.comments.AddComment(ctx, post.ID, author.ID, "  "+text+"  ")
		require.NoError(t, err)
		assert.Equal(t, text, comment.Text)
		ids = append(ids, comment.ID)
	}

	comments, err := env.comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, ids[2], comments[0].ID)
	assert.Equal(t, ids[0], comments[2].ID)
	assert.Equal(t, author.Username, comments[0].AuthorUsername)
	assert.Equal(t, author.ProfilePicture, comments[0].AuthorProfilePicture)
}

func TestCountByPostsGroupsInOneQuery(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	owner := env.createUser(t)
	busy := env.postAt(t, owner.ID, env.at(0))
	quiet := env.postAt(t, owner.ID, env.at(1))
	for i := 0; i < 3; i++ {
		_, err := env.comments.AddComment(ctx, busy.ID, owner.ID, "again")
		require.NoError(t, err)
	}

	queries := countQueries(t)
	counts, err := env.comments.CountByPosts(ctx, []models.PostID{busy.ID, quiet.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, *queries)
	assert.EqualValues(t, 3, counts[busy.ID])
	assert.EqualValues(t, 0, counts[quiet.ID])

	empty, err := env.comments.CountByPosts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 1, *queries)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	owner := env.createUser(t)
	author := env.createUser(t)
	post := env.postAt(t, owner.ID, env.at(0))

	comment, err := env.comments.AddComment(ctx, post.ID, author.ID, "hi")
	require.NoError(t, err)

	err = env.comments.DeleteComment(ctx, comment.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotCommentAuthor)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.comments.DeleteComment(ctx, comment.ID, author.ID))
	assert.ErrorIs(t, env.comments.DeleteComment(ctx, comment.ID, author.ID), ErrCommentNotFound)

	assert.Contains(t, env.events.types(), EventCommentDeleted)
}
