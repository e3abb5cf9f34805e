package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID     = "user_id"
	CtxUsername   = "username"
	CtxSAccountID = "s_account_id"
	CtxRoleID     = "role_id"
)

type Claims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	SAccountID int64  `json:"s_account_id"`
	RoleID     int    `json:"role_id"`
	jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 access token valid for ttl.
func NewAccessToken(secret []byte, claims Claims, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return s, &claims, nil
}

// список публичных эндпоинтов, которые не требуют токена
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/integrations/telegram/webhook":
		return true
	}
	if strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") {
		return true
	}
	return false
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		// 2) пропускаем публичные пути
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		// 3) читаем Authorization
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimSpace(parts[1])

		// 4) парсим и валидируем токен, допускаем небольшой leeway
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			// принимаем только HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.SAccountID == 0 || claims.Username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has no account scope"})
			return
		}

		// 5) прокидываем user/account/role в контекст
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxSAccountID, claims.SAccountID)
		c.Set(CtxRoleID, claims.RoleID)

		c.Next()
	}
}
