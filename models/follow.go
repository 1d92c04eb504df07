package models

import "time"

// Follow - направленное ребро графа подписок: FollowerID подписан на FollowingID.
// Пара уникальна, подписка на самого себя запрещена ограничением CHECK.
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  UserID    `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1;check:chk_follows_not_self,follower_id <> following_id" json:"follower_id"`
	FollowingID UserID    `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
