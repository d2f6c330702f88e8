package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/models"
	"github.com/razberry-fun/razberry-api/internal/storage"
	"gorm.io/gorm"
)

const maxAvatarBytes = 2 << 20

type ProfileHandler struct {
	db       *gorm.DB
	uploader storage.Uploader
}

func NewProfileHandler(db *gorm.DB, uploader storage.Uploader) *ProfileHandler {
	return &ProfileHandler{db: db, uploader: uploader}
}

// Me returns the current profile with subscription and usage state
func (h *ProfileHandler) Me(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var storyCount int64
	if err := h.db.Model(&models.Story{}).Where("profile_id = ?", profile.ID).
		Count(&storyCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": gin.H{
			"id":         profile.ID,
			"email":      profile.Email,
			"name":       profile.Name,
			"avatar_url": profile.AvatarURL,
			"bio":        profile.Bio,
			"created_at": profile.CreatedAt,
		},
		"subscription": gin.H{
			"status":             profile.SubscriptionStatus,
			"plan":               profile.SubscriptionPlan,
			"period":             profile.SubscriptionPeriod,
			"current_period_end": profile.SubscriptionCurrentPeriodEnd,
			"active":             profile.HasActiveSubscription(),
		},
		"usage": gin.H{
			"free_generations_used": profile.FreeGenerationsUsed,
			"audio_minutes_used":    profile.AudioMinutesUsed,
			"audio_minutes_limit":   profile.AudioMinutesLimit,
			"stories":               storyCount,
		},
	})
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Update edits the profile's display fields
func (h *ProfileHandler) Update(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.db.Model(profile).Updates(map[string]interface{}{
		"name": req.Name,
		"bio":  req.Bio,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// UploadAvatar stores a new avatar image and saves its URL
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar exceeds 2MB"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read avatar"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%d/avatar_%d", profile.ID, time.Now().UnixNano())
	url, err := h.uploader.Upload(c.Request.Context(), key, data, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
		return
	}

	if err := h.db.Model(profile).Update("avatar_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
