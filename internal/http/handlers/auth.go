package handlers

import (
	"net/http"
	"regexp"

	"spades_server/internal/domain"
	"spades_server/internal/service"

	"github.com/gin-gonic/gin"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-]{3,32}$`)

type AuthRequest struct {
	Username string `json:"username"`
}

// Auth logs a player in by username, creating the account on first use,
// and returns a signed token for the websocket and API.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if !usernameRe.MatchString(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-32 chars of letters, digits, _ or -"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		user = &domain.User{Username: req.Username}
		if err := h.Store.Users.Create(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
	}
	if user.IsBot {
		c.JSON(http.StatusForbidden, gin.H{"error": "bot accounts cannot log in"})
		return
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}
