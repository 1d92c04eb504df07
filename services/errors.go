package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Виды ошибок. Конкретные ошибки ниже разворачиваются в один из них через errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error - ошибка предметной области с сообщением для клиента
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(format string, args ...interface{}) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrSelfFollow       = newError(ErrValidation, "you cannot follow or unfollow yourself")
	ErrUserNotFound     = newError(ErrNotFound, "user not found")
	ErrAlreadyFollowing = newError(ErrConflict, "you are already following this user")
	ErrNotFollowing     = newError(ErrConflict, "you are not following this user")

	ErrPostNotFound = newError(ErrNotFound, "post not found")
	ErrNotPostOwner = newError(ErrForbidden, "not authorized to modify this post")
	ErrAlreadyLiked = newError(ErrConflict, "post already liked")
	ErrNotLiked     = newError(ErrConflict, "post has not been liked yet")

	ErrCommentNotFound  = newError(ErrNotFound, "comment not found")
	ErrNotCommentAuthor = newError(ErrForbidden, "not authorized to delete this comment")

	ErrSearchQueryRequired = newError(ErrValidation, "search query is required")
	ErrInvalidAnchor       = newError(ErrValidation, "invalid feed anchor")
)

// storeError оборачивает отказ хранилища в ErrStoreUnavailable.
// Ошибки предметной области, возвращенные из транзакции, проходят без изменений.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: deadline exceeded", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
