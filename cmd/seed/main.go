package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"photofeed/api/middleware"
	"photofeed/config"
	"photofeed/db"
	"photofeed/logs"
	"photofeed/models"
	"photofeed/services"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
)

// seed заполняет базу фейковыми пользователями, подписками, постами, лайками и комментариями
// и печатает bearer-токен для каждого созданного пользователя
func main() {
	var (
		configPath   string
		usersCount   int
		postsPerUser int
		follows      int
	)
	flag.StringVar(&configPath, "config", "etc/app.yaml", "Path to the configuration file")
	flag.IntVar(&usersCount, "users", 20, "Number of users to create")
	flag.IntVar(&postsPerUser, "posts", 3, "Posts per user")
	flag.IntVar(&follows, "follows", 5, "Follows per user")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logs.Setup(config.AppConfig.Logs.Level, config.AppConfig.Logs.Format)
	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	ctx := context.Background()
	graph := services.NewGraphService()
	posts := services.NewPostService()
	comments := services.NewCommentService()
	users := services.NewUserService(graph, posts)

	created := make([]models.User, 0, usersCount)
	for i := 0; i < usersCount; i++ {
		name := gofakeit.FirstName()
		user := models.User{
			Username:       fmt.Sprintf("%s_%s", strings.ToLower(name), gofakeit.Numerify("####")),
			FullName:       name + " " + gofakeit.LastName(),
			Bio:            gofakeit.Sentence(8),
			ProfilePicture: fmt.Sprintf("https://picsum.photos/seed/%s/200", gofakeit.UUID()),
		}
		if err := users.Register(ctx, &user, gofakeit.Password(true, true, true, false, false, 12)); err != nil {
			if errors.Is(err, services.ErrConflict) {
				continue
			}
			log.WithError(err).Fatal("failed to register user")
		}
		created = append(created, user)
	}

	for _, user := range created {
		for j := 0; j < follows && len(created) > 1; j++ {
			target := created[gofakeit.Number(0, len(created)-1)]
			err := graph.Follow(ctx, user.ID, target.ID)
			if err != nil && !errors.Is(err, services.ErrValidation) && !errors.Is(err, services.ErrConflict) {
				log.WithError(err).Fatal("failed to follow")
			}
		}
	}

	for _, user := range created {
		for j := 0; j < postsPerUser; j++ {
			post, err := posts.CreatePost(ctx, user.ID,
				fmt.Sprintf("https://picsum.photos/seed/%s/1080", gofakeit.UUID()),
				gofakeit.Sentence(gofakeit.Number(3, 15)))
			if err != nil {
				log.WithError(err).Fatal("failed to create post")
			}

			for k := gofakeit.Number(0, len(created)/2); k > 0; k-- {
				fan := created[gofakeit.Number(0, len(created)-1)]
				if _, err := posts.Like(ctx, post.ID, fan.ID); err != nil && !errors.Is(err, services.ErrConflict) {
					log.WithError(err).Fatal("failed to like post")
				}
			}
			for k := gofakeit.Number(0, 4); k > 0; k-- {
				author := created[gofakeit.Number(0, len(created)-1)]
				if _, err := comments.AddComment(ctx, post.ID, author.ID, gofakeit.Sentence(gofakeit.Number(2, 12))); err != nil {
					log.WithError(err).Fatal("failed to add comment")
				}
			}
		}
	}

	auth := config.AppConfig.Auth
	for _, user := range created {
		token, err := middleware.IssueToken(auth.JWTSecret, auth.Issuer, user.ID, auth.TokenTTL)
		if err != nil {
			log.WithError(err).Fatal("failed to issue token")
		}
		fmt.Printf("%d\t%s\t%s\n", user.ID, user.Username, token)
	}
	log.WithFields(log.Fields{"users": len(created), "posts": len(created) * postsPerUser}).Info("seed finished")
}
