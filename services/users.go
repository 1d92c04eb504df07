package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"photofeed/db"
	"photofeed/models"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm/clause"
)

const searchLimit = 20

type UserService struct {
	graph *GraphService
	posts *PostService
	now   func() time.Time
}

func NewUserService(graph *GraphService, posts *PostService) *UserService {
	return &UserService{
		graph: graph,
		posts: posts,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register создает пользователя; пароль хранится как salt$argon2id
func (us *UserService) Register(ctx context.Context, user *models.User, password string) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return validationError("username is required")
	}
	if password == "" {
		return validationError("password is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hash
	user.CreatedAt = us.now()
	user.UpdatedAt = user.CreatedAt

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	result := db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if result.Error != nil {
		return storeError("register", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(ErrConflict, "username is already taken")
	}
	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return nil
}

// Login проверяет пароль; неизвестное имя и неверный пароль неразличимы для клиента
func (us *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var user models.User
	err := db.GetWriteDB(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error
	if err != nil && !isNotFound(err) {
		return nil, storeError("login", err)
	}
	if err != nil || !checkPassword(user.Password, password) {
		return nil, newError(ErrUnauthenticated, "invalid username or password")
	}
	return &user, nil
}

// SearchByUsername ищет по подстроке имени без учета регистра, не более 20 результатов
func (us *UserService) SearchByUsername(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryRequired
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	users := []models.UserSummary{}
	err := db.GetReadOnlyDB(ctx).
		Model(&models.User{}).
		Select("id, username, profile_picture, bio").
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(query))+"%").
		Order("username").
		Limit(searchLimit).
		Scan(&users).Error
	if err != nil {
		return nil, storeError("search users", err)
	}
	return users, nil
}

// GetUser возвращает пользователя по id
func (us *UserService) GetUser(ctx context.Context, userID models.UserID) (*models.User, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var user models.User
	if err := db.GetReadOnlyDB(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	return &user, nil
}

// GetProfile собирает профиль со счетчиками и признаком подписки зрителя
func (us *UserService) GetProfile(ctx context.Context, userID, viewerID models.UserID) (*models.Profile, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, following, err := us.graph.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	postsCount, err := us.posts.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != userID {
		if isFollowing, err = us.graph.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}

	return &models.Profile{
		UserSummary:    user.Summary(),
		FullName:       user.FullName,
		CreatedAt:      user.CreatedAt,
		FollowersCount: followers,
		FollowingCount: following,
		PostsCount:     postsCount,
		IsFollowing:    isFollowing,
	}, nil
}

// SummariesByIDs загружает публичные проекции пачкой одним запросом
func (us *UserService) SummariesByIDs(ctx context.Context, ids []models.UserID) (map[models.UserID]models.UserSummary, error) {
	summaries := make(map[models.UserID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var rows []models.UserSummary
	err := db.GetReadOnlyDB(ctx).
		Model(&models.User{}).
		Select("id, username, profile_picture, bio").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("load users", err)
	}
	for _, row := range rows {
		summaries[row.ID] = row
	}
	return summaries, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) bool {
	salt, hash, found := strings.Cut(stored, "$")
	if !found {
		return false
	}
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	return hex.EncodeToString(argon2.IDKey([]byte(password), rawSalt, 1, 64*1024, 4, 32)) == hash
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
