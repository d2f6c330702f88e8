package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/models"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// generateAccessToken creates a short-lived JWT for the profile
func (h *AuthHandler) generateAccessToken(profile *models.Profile) (string, error) {
	claims := &middleware.Claims{
		ProfileID: profile.ID,
		Email:     profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "access",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// generateRefreshToken creates a long-lived JWT for the profile
func (h *AuthHandler) generateRefreshToken(profile *models.Profile) (string, error) {
	claims := &middleware.Claims{
		ProfileID: profile.ID,
		Email:     profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(refreshTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "refresh",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// setAuthCookies sets HTTP-only token cookies for web users.
// Use secure flag if HTTPS (required for cookie clearing to work properly)
func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	isHTTPS := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == forwardedProtoHTTPS
	c.SetCookie("access_token", accessToken, int(accessTokenDuration.Seconds()), "/", "", isHTTPS, true)
	c.SetCookie("refresh_token", refreshToken, int(refreshTokenDuration.Seconds()), "/", "", isHTTPS, true)
}

// Logout clears the auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	isHTTPS := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == forwardedProtoHTTPS
	c.SetCookie("access_token", "", -1, "/", "", isHTTPS, true)
	c.SetCookie("refresh_token", "", -1, "/", "", isHTTPS, true)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new token pair. The token comes
// from the body or, for web users, the refresh_token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	tokenString := req.RefreshToken
	if tokenString == "" {
		tokenString, _ = c.Cookie("refresh_token")
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token required"})
		return
	}

	claims, err := middleware.ParseToken(tokenString, h.cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	var profile models.Profile
	if err := h.db.First(&profile, claims.ProfileID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Profile not found"})
		return
	}

	accessToken, err := h.generateAccessToken(&profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	refreshToken, err := h.generateRefreshToken(&profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	h.setAuthCookies(c, accessToken, refreshToken)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int64(accessTokenDuration.Seconds()),
	})
}

type SyncRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// SyncUser upserts profile fields from the identity provider. Web clients
// call it after login so the stored profile tracks the provider's record.
func (h *AuthHandler) SyncUser(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}

	if len(updates) > 0 {
		if err := h.db.Model(profile).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync profile"})
			return
		}
	}

	var fresh models.Profile
	if err := h.db.First(&fresh, profile.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": fresh})
}
