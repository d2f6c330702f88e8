package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/models"
	"gorm.io/gorm"
)

const bearerPrefix = "Bearer"

type Claims struct {
	ProfileID uint   `json:"profile_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// extractToken pulls the JWT from the Authorization header or, for web
// users, the access_token cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == bearerPrefix {
			return parts[1]
		}
	}

	token, _ := c.Cookie("access_token")
	return token
}

// ParseToken validates a JWT and returns its claims
func ParseToken(tokenString, secret string) (*Claims, error) {
	return parseClaims(tokenString, secret)
}

func parseClaims(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// JWTAuth middleware validates JWT tokens and attaches the profile to context
func JWTAuth(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		claims, err := parseClaims(tokenString, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		var profile models.Profile
		if err := db.First(&profile, claims.ProfileID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Profile not found"})
			c.Abort()
			return
		}

		c.Set("profile", profile)
		c.Set("profile_id", profile.ID)

		c.Next()
	}
}

// OptionalJWTAuth is like JWTAuth but doesn't abort when the token is
// missing or invalid. The story endpoint uses it to tell subscribers
// apart from anonymous visitors.
func OptionalJWTAuth(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := parseClaims(tokenString, cfg.JWTSecret)
		if err != nil {
			c.Next()
			return
		}

		var profile models.Profile
		if err := db.First(&profile, claims.ProfileID).Error; err != nil {
			c.Next()
			return
		}

		c.Set("profile", profile)
		c.Set("profile_id", profile.ID)

		c.Next()
	}
}

// GetCurrentProfile retrieves the profile from context
func GetCurrentProfile(c *gin.Context) (*models.Profile, bool) {
	profileVal, exists := c.Get("profile")
	if !exists {
		return nil, false
	}
	profile, ok := profileVal.(models.Profile)
	return &profile, ok
}

// GetCurrentProfileID retrieves the profile ID from context
func GetCurrentProfileID(c *gin.Context) (uint, bool) {
	profileIDVal, exists := c.Get("profile_id")
	if !exists {
		return 0, false
	}
	profileID, ok := profileIDVal.(uint)
	return profileID, ok
}
