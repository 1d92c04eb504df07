package handlers

import (
	"net/http"
	"photofeed/models"

	"github.com/gin-gonic/gin"
)

type AddCommentRequest struct {
	Text string `json:"text"`
}

func AddComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := commentService.AddComment(c.Request.Context(), postID, userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"comment": comment})
}

func ListComments(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	comments, err := commentService.ListByPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"comments": comments})
}

func DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, err := models.ParseCommentID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid comment id")
		return
	}

	if err := commentService.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "comment deleted"})
}
