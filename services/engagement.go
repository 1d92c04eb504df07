package services

import (
	"context"
	"photofeed/models"
)

// EngagementService дополняет страницу постов счетчиками и признаком лайка зрителя.
// На страницу любого размера уходит не больше двух запросов: GROUP BY по комментариям
// и пачка авторов; лайки уже загружены вместе с постами.
type EngagementService struct {
	comments *CommentService
	users    *UserService
}

func NewEngagementService(comments *CommentService, users *UserService) *EngagementService {
	return &EngagementService{comments: comments, users: users}
}

func (es *EngagementService) Annotate(ctx context.Context, posts []models.Post, viewerID models.UserID) ([]models.FeedPost, error) {
	annotated := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return annotated, nil
	}

	postIDs := make([]models.PostID, 0, len(posts))
	authorIDs := make([]models.UserID, 0, len(posts))
	seen := make(map[models.UserID]struct{}, len(posts))
	for i := range posts {
		postIDs = append(postIDs, posts[i].ID)
		if _, ok := seen[posts[i].UserID]; !ok {
			seen[posts[i].UserID] = struct{}{}
			authorIDs = append(authorIDs, posts[i].UserID)
		}
	}

	commentCounts, err := es.comments.CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	authors, err := es.users.SummariesByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		post := &posts[i]
		author, ok := authors[post.UserID]
		if !ok {
			author = models.UserSummary{ID: post.UserID}
		}
		annotated = append(annotated, models.FeedPost{
			ID:           post.ID,
			User:         author,
			ImageURL:     post.ImageURL,
			Caption:      post.Caption,
			Likes:        post.LikerIDs(),
			LikeCount:    post.LikesCount,
			CommentCount: commentCounts[post.ID],
			IsLiked:      post.LikedBy(viewerID),
			CreatedAt:    post.CreatedAt,
			UpdatedAt:    post.UpdatedAt,
		})
	}
	return annotated, nil
}
