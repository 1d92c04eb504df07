package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Post - пост пользователя с изображением.
// Множество лайкнувших хранится строками PostLike, LikesCount денормализован
// и меняется в той же транзакции, что и PostLike.
type Post struct {
	ID         PostID     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     UserID     `gorm:"not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	ImageURL   string     `gorm:"size:2048;not null" json:"image_url"`
	Caption    string     `gorm:"type:text" json:"caption"`
	LikesCount int64      `gorm:"not null;default:0" json:"like_count"`
	Likes      []PostLike `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt  time.Time  `gorm:"index:idx_posts_user_created,priority:2;index:idx_posts_created" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// LikedBy проверяет принадлежность пользователя множеству лайков (загруженному в память)
func (p *Post) LikedBy(userID UserID) bool {
	for _, like := range p.Likes {
		if like.UserID == userID {
			return true
		}
	}
	return false
}

func (p *Post) LikerIDs() []UserID {
	ids := make([]UserID, 0, len(p.Likes))
	for _, like := range p.Likes {
		ids = append(ids, like.UserID)
	}
	return ids
}

func (p *Post) Cursor() FeedCursor {
	return FeedCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

type PostLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	PostID    PostID    `gorm:"not null;uniqueIndex:idx_post_likes_pair,priority:1" json:"post_id"`
	UserID    UserID    `gorm:"not null;uniqueIndex:idx_post_likes_pair,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// FeedPost - пост ленты с агрегированной вовлеченностью относительно зрителя
type FeedPost struct {
	ID           PostID      `json:"id"`
	User         UserSummary `json:"user"`
	ImageURL     string      `json:"image_url"`
	Caption      string      `json:"caption"`
	Likes        []UserID    `json:"likes"`
	LikeCount    int64       `json:"like_count"`
	CommentCount int64       `json:"comment_count"`
	IsLiked      bool        `json:"is_liked"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Pagination struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"total_pages"`
	HasMore    bool   `json:"has_more"`
	Anchor     string `json:"anchor,omitempty"`
}

// NewPagination считает число страниц без умножения page*limit, которое переполняется на больших page
func NewPagination(page, limit int, total int64) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		pages := (total + int64(limit) - 1) / int64(limit)
		p.TotalPages = int(pages)
		p.HasMore = int64(page) < pages
	}
	return p
}

// PageOffset возвращает смещение страницы; ok=false, если страница целиком за пределами total
func PageOffset(page, limit int, total int64) (offset int, ok bool) {
	if page < 1 || limit < 1 || total <= 0 {
		return 0, false
	}
	if int64(page-1) > (total-1)/int64(limit) {
		return 0, false
	}
	return (page - 1) * limit, true
}

// FeedPage - ответ API для ленты
type FeedPage struct {
	Posts      []FeedPost `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// FeedCursor - позиция в полном порядке (created_at DESC, id DESC)
type FeedCursor struct {
	CreatedAt time.Time
	ID        PostID
}

func (c FeedCursor) Encode() string {
	return fmt.Sprintf("%d_%d", c.CreatedAt.UnixNano(), c.ID)
}

func DecodeFeedCursor(s string) (FeedCursor, error) {
	nanos, id, found := strings.Cut(s, "_")
	if !found {
		return FeedCursor{}, fmt.Errorf("malformed cursor %q", s)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return FeedCursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	postID, err := ParsePostID(id)
	if err != nil {
		return FeedCursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	return FeedCursor{CreatedAt: time.Unix(0, n).UTC(), ID: postID}, nil
}
