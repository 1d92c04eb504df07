package routes

import (
	"photofeed/api/handlers"
	"photofeed/api/middleware"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine, auth middleware.Authenticator, limiter *middleware.RateLimiter) *gin.RouterGroup {
	router.GET("/metrics", middleware.MetricsHandler())

	publicEndpoints := router.Group("/api/v1/")
	publicEndpoints.Use(limiter.Handler())
	{
		publicEndpoints.POST("auth/register", handlers.Register)
		publicEndpoints.POST("auth/login", handlers.Login)
	}

	protected := router.Group("/api/v1/")
	protected.Use(middleware.AuthMiddleware(auth), limiter.Handler())
	{
		// Посты
		protected.POST("posts", handlers.CreatePost)
		protected.GET("posts/:id", handlers.GetPost)
		protected.PUT("posts/:id", handlers.UpdatePost)
		protected.DELETE("posts/:id", handlers.DeletePost)
		protected.POST("posts/:id/like", handlers.LikePost)
		protected.DELETE("posts/:id/like", handlers.UnlikePost)

		// Комментарии
		protected.POST("posts/:id/comments", handlers.AddComment)
		protected.GET("posts/:id/comments", handlers.ListComments)
		protected.DELETE("comments/:id", handlers.DeleteComment)

		// Подписки и пользователи
		protected.POST("users/:id/follow", handlers.Follow)
		protected.DELETE("users/:id/follow", handlers.Unfollow)
		protected.GET("users/search", handlers.SearchUsers)
		protected.GET("users/:id", handlers.GetProfile)
		protected.GET("users/:id/posts", handlers.GetUserPosts)
		protected.GET("users/:id/followers", handlers.GetFollowers)
		protected.GET("users/:id/following", handlers.GetFollowing)

		protected.GET("feed", handlers.GetFeed)
	}
	return protected
}
