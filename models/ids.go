package models

import (
	"fmt"
	"strconv"
)

// Типизированные идентификаторы: сравнение владельца поста с id комментатора не скомпилируется
type (
	UserID    int64
	PostID    int64
	CommentID int64
)

func ParseUserID(s string) (UserID, error) {
	id, err := parsePositive(s)
	return UserID(id), err
}

func ParsePostID(s string) (PostID, error) {
	id, err := parsePositive(s)
	return PostID(id), err
}

func ParseCommentID(s string) (CommentID, error) {
	id, err := parsePositive(s)
	return CommentID(id), err
}

func parsePositive(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be positive", s)
	}
	return id, nil
}

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id PostID) String() string { return strconv.FormatInt(int64(id), 10) }
