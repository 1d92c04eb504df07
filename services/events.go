package services

import (
	"context"
	"photofeed/models"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventPostCreated    EventType = "post.created"
	EventPostDeleted    EventType = "post.deleted"
	EventPostLiked      EventType = "post.liked"
	EventPostUnliked    EventType = "post.unliked"
	EventCommentCreated EventType = "comment.created"
	EventCommentDeleted EventType = "comment.deleted"
	EventUserFollowed   EventType = "user.followed"
	EventUserUnfollowed EventType = "user.unfollowed"
)

// Event - событие о зафиксированном изменении
type Event struct {
	Type      EventType        `json:"type"`
	ActorID   models.UserID    `json:"actor_id"`
	TargetID  models.UserID    `json:"target_id,omitempty"`
	PostID    models.PostID    `json:"post_id,omitempty"`
	CommentID models.CommentID `json:"comment_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

// Events - публикатор событий; InitRabbitMQ заменяет его на RabbitMQ
var Events EventPublisher = noopPublisher{}

// publishEvent вызывается после коммита: ошибка публикации не отменяет изменение
func publishEvent(ctx context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := Events.Publish(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":    event.Type,
			"actor_id": event.ActorID,
		}).Warn("failed to publish event")
	}
}
