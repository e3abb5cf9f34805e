package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"projectdesk/internal/middleware"
	"projectdesk/internal/models"
	"projectdesk/internal/repositories"
)

type AuthHandler struct {
	users     repositories.UserRepository
	secret    []byte
	accessTTL time.Duration
}

func NewAuthHandler(users repositories.UserRepository, secret []byte, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, accessTTL: accessTTL}
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токен доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)
	log.Printf("[auth][login] attempt username=%q", username)

	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		log.Printf("[auth][login][err] lookup username=%q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if user == nil {
		log.Printf("[auth][login] user not found username=%q", username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	ph := strings.TrimSpace(user.PasswordHash)
	if ph == "" {
		log.Printf("[auth][login] empty password_hash in DB for userID=%d", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ph), []byte(req.Password)); err != nil {
		log.Printf("[auth][login] bcrypt mismatch for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, claims, err := middleware.NewAccessToken(h.secret, middleware.Claims{
		UserID:     user.ID,
		Username:   user.Username,
		SAccountID: user.SAccountID,
		RoleID:     user.RoleID,
	}, h.accessTTL)
	if err != nil {
		log.Printf("[auth][login] sign access token failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	log.Printf("[auth][login] success userID=%d account=%d role=%d took=%s",
		user.ID, user.SAccountID, user.RoleID, time.Since(start).Truncate(time.Millisecond))

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         user, // PasswordHash помечен json:"-"
		"access_token": token,
		"expires_at":   claims.ExpiresAt.Time,
	})
}
