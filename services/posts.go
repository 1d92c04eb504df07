package services

import (
	"context"
	"photofeed/db"
	"photofeed/models"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostService struct {
	now func() time.Time
}

func NewPostService() *PostService {
	return &PostService{now: func() time.Time { return time.Now().UTC() }}
}

// CreatePost создает новый пост с пустым множеством лайков
func (ps *PostService) CreatePost(ctx context.Context, ownerID models.UserID, imageURL, caption string) (*models.Post, error) {
	imageURL = strings.TrimSpace(imageURL)
	if err := validateInput(postInput{ImageURL: imageURL, Caption: caption}); err != nil {
		return nil, err
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	now := ps.now()
	post := &models.Post{
		UserID:    ownerID,
		ImageURL:  imageURL,
		Caption:   caption,
		Likes:     []models.PostLike{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.GetWriteDB(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, storeError("create post", err)
	}

	log.WithFields(log.Fields{"post_id": post.ID, "user_id": ownerID}).Debug("post created")
	publishEvent(ctx, Event{Type: EventPostCreated, ActorID: ownerID, PostID: post.ID, CreatedAt: now})
	return post, nil
}

// GetPost возвращает пост вместе с множеством лайков
func (ps *PostService) GetPost(ctx context.Context, postID models.PostID) (*models.Post, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var post models.Post
	err := db.GetWriteDB(ctx).Preload("Likes").First(&post, "id = ?", postID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, storeError("get post", err)
	}
	return &post, nil
}

// UpdateCaption меняет подпись; разрешено только владельцу
func (ps *PostService) UpdateCaption(ctx context.Context, postID models.PostID, requesterID models.UserID, caption string) (*models.Post, error) {
	if err := validateInput(captionInput{Caption: caption}); err != nil {
		return nil, err
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.UserID != requesterID {
			return ErrNotPostOwner
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Updates(map[string]interface{}{"caption": caption, "updated_at": ps.now()}).Error
	})
	if err != nil {
		return nil, storeError("update caption", err)
	}
	return ps.GetPost(ctx, postID)
}

// DeletePost удаляет пост вместе с комментариями и лайками в одной транзакции:
// после коммита не остается комментариев, ссылающихся на пост
func (ps *PostService) DeletePost(ctx context.Context, postID models.PostID, requesterID models.UserID) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.UserID != requesterID {
			return ErrNotPostOwner
		}

		if err := deleteAllByPost(tx, postID); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", postID).Error
	})
	if err != nil {
		return storeError("delete post", err)
	}

	publishEvent(ctx, Event{Type: EventPostDeleted, ActorID: requesterID, PostID: postID})
	return nil
}

// Like добавляет userID в множество лайков поста и возвращает новое число лайков.
// Вставка идет через ON CONFLICT DO NOTHING по уникальному (post_id, user_id),
// счетчик меняется выражением likes_count + 1 в той же транзакции.
func (ps *PostService) Like(ctx context.Context, postID models.PostID, userID models.UserID) (int64, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var likeCount int64
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}

		like := &models.PostLike{PostID: postID, UserID: userID, CreatedAt: ps.now()}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyLiked
		}

		var err error
		likeCount, err = bumpLikes(tx, postID, 1)
		return err
	})
	if err != nil {
		return 0, storeError("like post", err)
	}

	publishEvent(ctx, Event{Type: EventPostLiked, ActorID: userID, PostID: postID})
	return likeCount, nil
}

// Unlike убирает userID из множества лайков и возвращает новое число лайков
func (ps *PostService) Unlike(ctx context.Context, postID models.PostID, userID models.UserID) (int64, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var likeCount int64
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}

		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotLiked
		}

		var err error
		likeCount, err = bumpLikes(tx, postID, -1)
		return err
	})
	if err != nil {
		return 0, storeError("unlike post", err)
	}

	publishEvent(ctx, Event{Type: EventPostUnliked, ActorID: userID, PostID: postID})
	return likeCount, nil
}

// ListByScope возвращает страницу постов авторов из scope в порядке (created_at DESC, id DESC)
// и общее число постов по тому же фильтру. Если задан anchor, учитываются только посты
// не новее него, поэтому вставки между запросами страниц не сдвигают смещения.
func (ps *PostService) ListByScope(ctx context.Context, scope []models.UserID, page, limit int, anchor *models.FeedCursor) ([]models.Post, int64, error) {
	posts := []models.Post{}
	if len(scope) == 0 {
		return posts, 0, nil
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	scoped := func() *gorm.DB {
		q := db.GetReadOnlyDB(ctx).Model(&models.Post{}).Where("user_id IN ?", scope)
		if anchor != nil {
			q = q.Where("(created_at < ? OR (created_at = ? AND id <= ?))", anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, storeError("count posts", err)
	}
	offset, ok := models.PageOffset(page, limit, total)
	if !ok {
		return posts, total, nil
	}

	err := scoped().
		Preload("Likes").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, storeError("list posts", err)
	}
	return posts, total, nil
}

// Head возвращает самый новый пост из scope, nil если постов нет
func (ps *PostService) Head(ctx context.Context, scope []models.UserID) (*models.FeedCursor, error) {
	if len(scope) == 0 {
		return nil, nil
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var head []models.Post
	err := db.GetReadOnlyDB(ctx).
		Select("id", "created_at").
		Where("user_id IN ?", scope).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&head).Error
	if err != nil {
		return nil, storeError("feed head", err)
	}
	if len(head) == 0 {
		return nil, nil
	}
	cursor := head[0].Cursor()
	return &cursor, nil
}

// ListByUser - посты одного автора для профиля
func (ps *PostService) ListByUser(ctx context.Context, ownerID models.UserID, page, limit int) ([]models.Post, int64, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	if err := ensureUserExists(db.GetReadOnlyDB(ctx), ownerID); err != nil {
		return nil, 0, storeError("list user posts", err)
	}
	return ps.ListByScope(ctx, []models.UserID{ownerID}, page, limit, nil)
}

// CountByUser - число постов пользователя
func (ps *PostService) CountByUser(ctx context.Context, ownerID models.UserID) (int64, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var count int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.Post{}).Where("user_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, storeError("count user posts", err)
	}
	return count, nil
}

// lockPost читает пост внутри транзакции; на PostgreSQL строка блокируется до коммита
func lockPost(tx *gorm.DB, postID models.PostID) (*models.Post, error) {
	return readPostLocked(tx, postID, "UPDATE")
}

func readPostLocked(tx *gorm.DB, postID models.PostID, strength string) (*models.Post, error) {
	var post models.Post
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: strength})
	}
	if err := q.First(&post, "id = ?", postID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func bumpLikes(tx *gorm.DB, postID models.PostID, delta int) (int64, error) {
	err := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
	if err != nil {
		return 0, err
	}
	var likeCount int64
	err = tx.Model(&models.Post{}).Where("id = ?", postID).Pluck("likes_count", &likeCount).Error
	return likeCount, err
}
