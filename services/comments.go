package services

import (
	"context"
	"photofeed/db"
	"photofeed/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

type CommentService struct {
	now func() time.Time
}

func NewCommentService() *CommentService {
	return &CommentService{now: func() time.Time { return time.Now().UTC() }}
}

// AddComment добавляет комментарий к существующему посту.
// Текст проверяется до обращения к хранилищу.
func (cs *CommentService) AddComment(ctx context.Context, postID models.PostID, authorID models.UserID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validateInput(commentInput{Text: text}); err != nil {
		return nil, err
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	comment := &models.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: cs.now(),
	}
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		// FOR SHARE: удаление поста, начатое раньше, дождется нас или мы увидим, что поста нет
		if _, err := readPostLocked(tx, postID, "SHARE"); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, storeError("add comment", err)
	}

	publishEvent(ctx, Event{Type: EventCommentCreated, ActorID: authorID, PostID: postID, CommentID: comment.ID, CreatedAt: comment.CreatedAt})
	return comment, nil
}

// ListByPost возвращает все комментарии поста, новые первыми
func (cs *CommentService) ListByPost(ctx context.Context, postID models.PostID) ([]models.CommentView, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var exists int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, storeError("list comments", err)
	}
	if exists == 0 {
		return nil, ErrPostNotFound
	}

	comments := []models.CommentView{}
	err := db.GetReadOnlyDB(ctx).
		Table("comments c").
		Select("c.id, c.post_id, c.author_id, u.username AS author_username, u.profile_picture AS author_profile_picture, c.text, c.created_at").
		Joins("LEFT JOIN users u ON u.id = c.author_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at DESC, c.id DESC").
		Scan(&comments).Error
	if err != nil {
		return nil, storeError("list comments", err)
	}
	return comments, nil
}

// CountByPost - число комментариев поста одним запросом
func (cs *CommentService) CountByPost(ctx context.Context, postID models.PostID) (int64, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var count int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, storeError("count comments", err)
	}
	return count, nil
}

// CountByPosts считает комментарии для пачки постов одним GROUP BY запросом.
// Посты без комментариев в карте отсутствуют.
func (cs *CommentService) CountByPosts(ctx context.Context, postIDs []models.PostID) (map[models.PostID]int64, error) {
	counts := make(map[models.PostID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var rows []struct {
		PostID models.PostID
		Total  int64
	}
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("count comments by post", err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}

// DeleteComment удаляет комментарий; разрешено только автору
func (cs *CommentService) DeleteComment(ctx context.Context, commentID models.CommentID, requesterID models.UserID) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var comment models.Comment
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", commentID).Error; err != nil {
			if isNotFound(err) {
				return ErrCommentNotFound
			}
			return err
		}
		if comment.AuthorID != requesterID {
			return ErrNotCommentAuthor
		}
		return tx.Delete(&models.Comment{}, "id = ?", commentID).Error
	})
	if err != nil {
		return storeError("delete comment", err)
	}

	publishEvent(ctx, Event{Type: EventCommentDeleted, ActorID: requesterID, PostID: comment.PostID, CommentID: commentID})
	return nil
}

// deleteAllByPost используется только каскадным удалением поста внутри его транзакции
func deleteAllByPost(tx *gorm.DB, postID models.PostID) error {
	return tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}
