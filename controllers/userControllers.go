package controllers

import (
	"net/http"

	"doc-booking/authentication"
	"doc-booking/models"
	"doc-booking/services"

	"github.com/gin-gonic/gin"
)

// Signup registers a user account
func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, "Signup successful", user)
}

// Login issues a bearer token
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := authentication.GenerateUserToken(h.SigningKey, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login successful",
		"token":   token,
		"data":    user,
	})
}

func (h *Handler) GetProfile(c *gin.Context) {
	view, err := h.Users.Profile(c.Request.Context(), authentication.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Profile fetched successfully", view)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.Users.UpdateProfile(c.Request.Context(), authentication.CurrentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Profile updated successfully", view)
}
