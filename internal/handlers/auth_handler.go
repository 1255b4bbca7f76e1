package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"asset-registry-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// AuthHandler authenticates the single operator account.
type AuthHandler struct {
	username     string
	passwordHash string
}

func NewAuthHandler(username, passwordHash string) *AuthHandler {
	return &AuthHandler{username: username, passwordHash: passwordHash}
}

// Login handles the login endpoint
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	if err := auth.CheckPassword(h.passwordHash, req.Password); err != nil || !userOK {
		slog.Info("login rejected", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid username or password",
		})
		return
	}

	token, err := auth.GenerateToken(h.username, h.username)
	if err != nil {
		slog.Error("token generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   h.username,
		Username: h.username,
		Message:  "Login successful",
	})
}
