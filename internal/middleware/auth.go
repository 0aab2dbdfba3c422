package middleware

import (
	"database/sql"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
)

const userContextKey = "user"

// RequireAuth validates the Bearer token and loads the user onto the gin
// context under "user".
func RequireAuth(users *repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _, ok := parseToken(c)
		if !ok {
			return
		}

		user, err := users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			if err == sql.ErrNoRows {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": true, "message": "User does not exist"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": true, "message": "System error (db)"})
			}
			return
		}
		if user.Blocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": true, "message": "Account blocked"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin validates a token carrying the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := parseToken(c)
		if !ok {
			return
		}
		if role != "admin" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized admin access"})
			return
		}
		c.Next()
	}
}

// CurrentUser fetches the authenticated user previously set by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

func parseToken(c *gin.Context) (username, role string, ok bool) {
	jwtSecret := os.Getenv("ACCESS_TOKEN_SECRET")

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Access token required"})
		return "", "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": true, "message": "Access token expired or incorrect"})
		return "", "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Invalid token"})
		return "", "", false
	}

	username, _ = claims["username"].(string)
	role, _ = claims["role"].(string)
	if username == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": true, "message": "username not found in token"})
		return "", "", false
	}
	return username, role, true
}
