package services

import (
	"context"
	"photofeed/db"
	"photofeed/models"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GraphService - граф подписок (направленные ребра follower -> following)
type GraphService struct {
	now func() time.Time
}

func NewGraphService() *GraphService {
	return &GraphService{now: func() time.Time { return time.Now().UTC() }}
}

// Follow подписывает followerID на targetID.
// Уникальность пары обеспечивает индекс idx_follows_pair: вставка ON CONFLICT DO NOTHING,
// ноль вставленных строк означает, что подписка уже есть.
func (gs *GraphService) Follow(ctx context.Context, followerID, targetID models.UserID) error {
	if followerID == targetID {
		return ErrSelfFollow
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	edge := &models.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
		CreatedAt:   gs.now(),
	}
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, targetID); err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyFollowing
		}
		return nil
	})
	if err != nil {
		return storeError("follow", err)
	}

	gs.adjustCounters(ctx, followerID, targetID, 1)
	publishEvent(ctx, Event{Type: EventUserFollowed, ActorID: followerID, TargetID: targetID, CreatedAt: edge.CreatedAt})
	return nil
}

// Unfollow удаляет ребро одним DELETE; проигравший в гонке двух отписок получает ErrNotFollowing
func (gs *GraphService) Unfollow(ctx context.Context, followerID, targetID models.UserID) error {
	if followerID == targetID {
		return ErrSelfFollow
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	result := db.GetWriteDB(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return storeError("unfollow", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFollowing
	}

	gs.adjustCounters(ctx, followerID, targetID, -1)
	publishEvent(ctx, Event{Type: EventUserUnfollowed, ActorID: followerID, TargetID: targetID})
	return nil
}

// ListFollowing возвращает id пользователей, на которых подписан userID
func (gs *GraphService) ListFollowing(ctx context.Context, userID models.UserID) ([]models.UserID, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	ids := []models.UserID{}
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, storeError("list following", err)
	}
	return ids, nil
}

// ListFollowers возвращает id подписчиков userID
func (gs *GraphService) ListFollowers(ctx context.Context, userID models.UserID) ([]models.UserID, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	ids := []models.UserID{}
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, storeError("list followers", err)
	}
	return ids, nil
}

// IsFollowing читает с мастера, чтобы видеть собственные только что зафиксированные подписки
func (gs *GraphService) IsFollowing(ctx context.Context, followerID, targetID models.UserID) (bool, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var count int64
	err := db.GetWriteDB(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Count(&count).Error
	if err != nil {
		return false, storeError("is following", err)
	}
	return count > 0, nil
}

// FollowingUsers - список подписок в публичной проекции
func (gs *GraphService) FollowingUsers(ctx context.Context, userID models.UserID) ([]models.UserSummary, error) {
	return gs.listUsers(ctx, userID, "f.following_id = u.id AND f.follower_id = ?")
}

// FollowerUsers - список подписчиков в публичной проекции
func (gs *GraphService) FollowerUsers(ctx context.Context, userID models.UserID) ([]models.UserSummary, error) {
	return gs.listUsers(ctx, userID, "f.follower_id = u.id AND f.following_id = ?")
}

func (gs *GraphService) listUsers(ctx context.Context, userID models.UserID, join string) ([]models.UserSummary, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	if err := ensureUserExists(db.GetReadOnlyDB(ctx), userID); err != nil {
		return nil, storeError("list users", err)
	}

	users := []models.UserSummary{}
	err := db.GetReadOnlyDB(ctx).
		Table("users u").
		Joins("JOIN follows f ON "+join, userID).
		Select("u.id, u.username, u.profile_picture, u.bio").
		Order("f.created_at DESC, f.id DESC").
		Scan(&users).Error
	if err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

// Counts возвращает (подписчики, подписки): из кеша Redis, при промахе - из базы с прогревом кеша
func (gs *GraphService) Counts(ctx context.Context, userID models.UserID) (followers, following int64, err error) {
	followers, following, ok, cacheErr := graphCounters.Get(ctx, userID)
	if cacheErr != nil {
		log.WithError(cacheErr).WithField("user_id", userID).Warn("failed to read graph counters from cache")
	}
	if ok {
		return followers, following, nil
	}

	followers, following, err = countEdges(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if err := graphCounters.Warm(ctx, userID, followers, following); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to cache graph counters")
	}
	return followers, following, nil
}

func countEdges(ctx context.Context, userID models.UserID) (followers, following int64, err error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	if err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, storeError("count followers", err)
	}
	if err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, storeError("count following", err)
	}
	return followers, following, nil
}

func (gs *GraphService) adjustCounters(ctx context.Context, followerID, targetID models.UserID, delta int64) {
	if err := graphCounters.Adjust(ctx, followerID, CounterFollowing, delta); err != nil {
		log.WithError(err).Warn("failed to adjust following counter")
	}
	if err := graphCounters.Adjust(ctx, targetID, CounterFollowers, delta); err != nil {
		log.WithError(err).Warn("failed to adjust followers counter")
	}
}

func ensureUserExists(tx *gorm.DB, userID models.UserID) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
