package handlers

import (
	"net/http"
	"photofeed/models"
	"strconv"

	"github.com/gin-gonic/gin"
)

func SearchUsers(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	users, err := userService.SearchByUsername(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"users": users})
}

func GetProfile(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	profile, err := userService.GetProfile(c.Request.Context(), userID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": profile})
}

func GetUserPosts(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	page, limit := 1, 12
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	posts, total, err := postService.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	annotated, err := engagementService.Annotate(c.Request.Context(), posts, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"posts": annotated,
		"pagination": models.NewPagination(page, limit, total),
	})
}

func GetFollowers(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	users, err := graphService.FollowerUsers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"users": users})
}

func GetFollowing(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	users, err := graphService.FollowingUsers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"users": users})
}

func Follow(c *gin.Context) {
	followerID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := graphService.Follow(c.Request.Context(), followerID, targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "followed"})
}

func Unfollow(c *gin.Context) {
	followerID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := graphService.Unfollow(c.Request.Context(), followerID, targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "unfollowed"})
}
