package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"signage-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

type AuthMiddleware struct {
	jwtSecret []byte
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: []byte(jwtSecret)}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(c, "authorization header must use the Bearer scheme")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return am.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			slog.Debug("Rejected token", "error", err)
			unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid token claims")
			return
		}

		// JSON numbers decode as float64
		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			unauthorized(c, "user_id claim must be a positive number")
			return
		}

		c.Set(ContextUserID, uint(userID))
		if email, ok := claims["email"].(string); ok {
			c.Set(ContextEmail, email)
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized",
		Details: details,
	})
}
