package controller

import (
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Mobile   string `json:"mobile"`
}

type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type jwtClaims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var accessTTL = 24 * time.Hour

func Register(users *repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid data"})
			return
		}

		exists, err := users.Exists(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "System error (db check)"})
			return
		}
		if exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Username already exists"})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Error encode password"})
			return
		}

		usercode := strings.ToUpper(uuid.NewString()[:8])
		user, err := users.Create(c.Request.Context(), req.Username, string(hashed), usercode)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Registration failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"error":   false,
			"message": "Registration successful",
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"usercode": user.Usercode,
			},
		})
	}
}

func SignIn(users *repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		jwtSecret := os.Getenv("ACCESS_TOKEN_SECRET")

		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Username and password required"})
			return
		}

		user, hash, err := users.GetCredentials(c.Request.Context(), req.Username)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "System error (db)"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Invalid credentials"})
			return
		}

		if user.Blocked {
			c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Account blocked"})
			return
		}

		claims := jwtClaims{
			Username: user.Username,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTTL)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		accessToken, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "System error (jwt)"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"error":   false,
			"message": "Login successful",
			"token":   accessToken,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"balance":  user.Balance,
				"bonus":    user.Bonus,
				"usercode": user.Usercode,
			},
		})
	}
}

// AdminSignIn authenticates the administrative actor against env
// credentials and issues a role-scoped token.
func AdminSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		jwtSecret := os.Getenv("ACCESS_TOKEN_SECRET")
		adminUser := os.Getenv("ADMIN_USERNAME")
		adminPass := os.Getenv("ADMIN_PASSWORD")
		if adminUser == "" {
			adminUser = "admin"
		}

		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Username and password required"})
			return
		}

		if adminPass == "" || req.Username != adminUser || req.Password != adminPass {
			c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Invalid admin credentials"})
			return
		}

		claims := jwtClaims{
			Username: adminUser,
			Role:     "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTTL)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		accessToken, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "System error (jwt)"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"error":   false,
			"message": "Admin login successful",
			"token":   accessToken,
		})
	}
}
