package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"photofeed/config"
	"photofeed/db"
	"photofeed/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	graph      *GraphService
	posts      *PostService
	comments   *CommentService
	users      *UserService
	engagement *EngagementService
	feed       *FeedService
	events     *recordingPublisher
	clock      time.Time
}

// setupTestDB поднимает sqlite в памяти на одном соединении и собирает сервисы
func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	db.ORM = nil
	conf := config.Default()
	conf.Databases.Master.Driver = "sqlite"
	conf.Databases.Master.Path = ":memory:"
	conf.Databases.MaxOpenConns = 1
	config.AppConfig = conf
	require.NoError(t, db.ConnectDB())

	events := &recordingPublisher{}
	Events = events
	graphCounters = nil

	env := &testEnv{
		graph:    NewGraphService(),
		posts:    NewPostService(),
		comments: NewCommentService(),
		events:   events,
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.users = NewUserService(env.graph, env.posts)
	env.engagement = NewEngagementService(env.comments, env.users)
	env.feed = NewFeedService(env.graph, env.posts, env.engagement)

	t.Cleanup(func() {
		if sqlDB, err := db.ORM.DB(); err == nil {
			_ = sqlDB.Close()
		}
		db.ORM = nil
		Events = noopPublisher{}
	})
	return env
}

func (env *testEnv) createUser(t *testing.T) models.User {
	t.Helper()
	user := models.User{
		Username:       fmt.Sprintf("%s_%s", strings.ToLower(gofakeit.FirstName()), gofakeit.Numerify("######")),
		FullName:       gofakeit.Name(),
		Bio:            gofakeit.Sentence(6),
		ProfilePicture: gofakeit.URL(),
	}
	require.NoError(t, env.users.Register(context.Background(), &user, gofakeit.Password(true, true, true, false, false, 12)))
	return user
}

// postAt создает пост с заданным временем создания
func (env *testEnv) postAt(t *testing.T, owner models.UserID, at time.Time) *models.Post {
	t.Helper()
	env.posts.now = func() time.Time { return at }
	post, err := env.posts.CreatePost(context.Background(), owner, gofakeit.URL(), gofakeit.Sentence(5))
	require.NoError(t, err)
	return post
}

func (env *testEnv) at(minutes int) time.Time {
	return env.clock.Add(time.Duration(minutes) * time.Minute)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// countQueries считает SELECT-запросы к базе, включая Scan и Preload
func countQueries(t *testing.T) *int {
	t.Helper()
	n := 0
	inc := func(*gorm.DB) { n++ }
	require.NoError(t, db.ORM.Callback().Query().After("gorm:query").Register("test:count_query", inc))
	require.NoError(t, db.ORM.Callback().Row().After("gorm:row").Register("test:count_row", inc))
	return &n
}
