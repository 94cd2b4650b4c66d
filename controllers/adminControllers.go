package controllers

import (
	"net/http"

	"doc-booking/authentication"
	"doc-booking/models"

	"github.com/gin-gonic/gin"
)

// AdminLogin issues a token only to administrator accounts
func (h *Handler) AdminLogin(c *gin.Context) {
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
	if !user.IsAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	token, err := authentication.GenerateUserToken(h.SigningKey, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}
