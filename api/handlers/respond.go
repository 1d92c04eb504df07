package handlers

import (
	"errors"
	"net/http"
	"photofeed/api/middleware"
	"photofeed/models"
	"photofeed/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var (
	graphService      = services.NewGraphService()
	postService       = services.NewPostService()
	commentService    = services.NewCommentService()
	userService       = services.NewUserService(graphService, postService)
	engagementService = services.NewEngagementService(commentService, userService)
	feedService       = services.NewFeedService(graphService, postService, engagementService)
)

// statusFor сопоставляет вид ошибки HTTP-статусу; нарушение владения тоже отдается как 401
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(status, gin.H{"success": false, "message": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func respondOK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func currentUser(c *gin.Context) (models.UserID, bool) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
	}
	return userID, ok
}

func postIDParam(c *gin.Context) (models.PostID, bool) {
	id, err := models.ParsePostID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid post id")
		return 0, false
	}
	return id, true
}

func userIDParam(c *gin.Context) (models.UserID, bool) {
	id, err := models.ParseUserID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}
