package middleware

import (
	"fmt"
	"net/http"
	"strings"

	session "anoa.com/studentroster/internal/modules/session/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID         = "user_id"
	ContextTokenID        = "token_id"
	ContextTokenExpiresAt = "token_expires_at"
)

type AuthMiddleware struct {
	secret   string
	sessions session.Service
}

func NewAuthMiddleware(secret string, sessions session.Service) *AuthMiddleware {
	return &AuthMiddleware{
		secret:   secret,
		sessions: sessions,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if claims.ID != "" {
			revoked, err := m.sessions.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logrus.WithError(err).Warn("token revocation check failed")
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session has ended"})
				return
			}
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiresAt, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}
