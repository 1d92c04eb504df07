package models

import (
	"time"
)

type User struct {
	ID             UserID    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"size:60;uniqueIndex;not null" json:"username"`
	FullName       string    `gorm:"size:255" json:"full_name"`
	Bio            string    `gorm:"size:500" json:"bio"`
	ProfilePicture string    `gorm:"size:2048" json:"profile_picture"`
	Password       string    `gorm:"size:255" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary - публичная проекция пользователя, без учетных данных
type UserSummary struct {
	ID             UserID `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
	}
}

// Profile - профиль пользователя с производными счетчиками
type Profile struct {
	UserSummary
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	PostsCount     int64     `json:"posts_count"`
	IsFollowing    bool      `json:"is_following"`
}
