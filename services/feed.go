package services

import (
	"context"
	"photofeed/config"
	"photofeed/models"
	"strings"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 100
)

type FeedQuery struct {
	Page   int
	Limit  int
	Anchor string
}

// FeedService собирает ленту: граф -> страница постов -> агрегаты вовлеченности
type FeedService struct {
	graph      *GraphService
	posts      *PostService
	engagement *EngagementService
}

func NewFeedService(graph *GraphService, posts *PostService, engagement *EngagementService) *FeedService {
	return &FeedService{graph: graph, posts: posts, engagement: engagement}
}

// limits берет лимиты из конфига на каждый запрос
func (fs *FeedService) limits() (defaultLimit, maxLimit int) {
	defaultLimit, maxLimit = defaultFeedLimit, maxFeedLimit
	if config.AppConfig != nil {
		if config.AppConfig.Feed.DefaultLimit > 0 {
			defaultLimit = config.AppConfig.Feed.DefaultLimit
		}
		if config.AppConfig.Feed.MaxLimit > 0 {
			maxLimit = config.AppConfig.Feed.MaxLimit
		}
	}
	return defaultLimit, maxLimit
}

func (fs *FeedService) normalize(q FeedQuery) FeedQuery {
	defaultLimit, maxLimit := fs.limits()
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Anchor = strings.TrimSpace(q.Anchor)
	return q
}

// GetFeed возвращает страницу ленты зрителя: его посты и посты тех, на кого он подписан.
// Все страницы одного обхода считаются относительно якоря (самого нового поста на момент
// первой страницы), поэтому новые посты не сдвигают смещения следующих страниц.
func (fs *FeedService) GetFeed(ctx context.Context, viewerID models.UserID, q FeedQuery) (*models.FeedPage, error) {
	q = fs.normalize(q)

	var anchor *models.FeedCursor
	if q.Anchor != "" {
		cursor, err := models.DecodeFeedCursor(q.Anchor)
		if err != nil {
			return nil, ErrInvalidAnchor
		}
		anchor = &cursor
	}

	following, err := fs.graph.ListFollowing(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	scope := make([]models.UserID, 0, len(following)+1)
	scope = append(scope, following...)
	scope = append(scope, viewerID)

	if anchor == nil {
		if anchor, err = fs.posts.Head(ctx, scope); err != nil {
			return nil, err
		}
	}

	page := &models.FeedPage{
		Posts:      []models.FeedPost{},
		Pagination: models.NewPagination(q.Page, q.Limit, 0),
	}
	if anchor == nil {
		return page, nil
	}

	posts, total, err := fs.posts.ListByScope(ctx, scope, q.Page, q.Limit, anchor)
	if err != nil {
		return nil, err
	}
	if page.Posts, err = fs.engagement.Annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	page.Pagination = models.NewPagination(q.Page, q.Limit, total)
	page.Pagination.Anchor = anchor.Encode()
	return page, nil
}

// PostDetail - пост с комментариями и признаком лайка зрителя
type PostDetail struct {
	Post     models.FeedPost      `json:"post"`
	Comments []models.CommentView `json:"comments"`
}

// GetPostDetail: пост -> комментарии -> агрегаты
func (fs *FeedService) GetPostDetail(ctx context.Context, postID models.PostID, viewerID models.UserID) (*PostDetail, error) {
	post, err := fs.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	list, err := fs.engagement.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	annotated, err := fs.engagement.Annotate(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	annotated[0].CommentCount = int64(len(list))
	return &PostDetail{Post: annotated[0], Comments: list}, nil
}
