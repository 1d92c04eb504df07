package models

import (
	"time"
)

type Comment struct {
	ID        CommentID `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    PostID    `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	AuthorID  UserID    `gorm:"not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// CommentView - комментарий вместе с публичными данными автора
type CommentView struct {
	ID                   CommentID `json:"id"`
	PostID               PostID    `json:"post_id"`
	AuthorID             UserID    `json:"author_id"`
	AuthorUsername       string    `json:"author_username"`
	AuthorProfilePicture string    `json:"author_profile_picture"`
	Text                 string    `json:"text"`
	CreatedAt            time.Time `json:"created_at"`
}
