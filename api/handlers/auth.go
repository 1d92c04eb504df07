package handlers

import (
	"net/http"
	"photofeed/api/middleware"
	"photofeed/config"
	"photofeed/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username       string `json:"username" binding:"required,max=60"`
	Password       string `json:"password" binding:"required,min=6"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio" binding:"max=500"`
	ProfilePicture string `json:"profile_picture" binding:"omitempty,url"`
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	user := models.User{
		Username:       req.Username,
		FullName:       req.FullName,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	}
	if err := userService.Register(c.Request.Context(), &user, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondWithToken(c, http.StatusCreated, user)
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondWithToken(c, http.StatusOK, *user)
}

func respondWithToken(c *gin.Context, status int, user models.User) {
	auth := config.AppConfig.Auth
	token, err := middleware.IssueToken(auth.JWTSecret, auth.Issuer, user.ID, auth.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status, gin.H{"user": user.Summary(), "token": token})
}
