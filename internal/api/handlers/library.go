package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/logger"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/models"
	"github.com/razberry-fun/razberry-api/internal/storage"
	"gorm.io/gorm"
)

type LibraryHandler struct {
	db       *gorm.DB
	uploader storage.Uploader
}

func NewLibraryHandler(db *gorm.DB, uploader storage.Uploader) *LibraryHandler {
	return &LibraryHandler{db: db, uploader: uploader}
}

type SaveStoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Prompt      string `json:"prompt"`
	AudioBase64 string `json:"audioBase64"`
}

// Save stores a generated story in the caller's library, uploading the
// narration audio to the public bucket when present.
func (h *LibraryHandler) Save(c *gin.Context) {
	profileID, exists := middleware.GetCurrentProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SaveStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Title == "" || req.Content == "" || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, content, and prompt are required"})
		return
	}

	audioURL := ""
	if req.AudioBase64 != "" {
		audioBytes, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid audio encoding"})
			return
		}

		key := fmt.Sprintf("%d/%d_story.mp3", profileID, time.Now().UnixNano())
		audioURL, err = h.uploader.Upload(c.Request.Context(), key, audioBytes, mimeTypeMP3)
		if err != nil {
			logger.Error("Failed to upload story audio", err, logger.Fields{
				"request_id": c.GetString("request_id"),
				"profile_id": profileID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store audio"})
			return
		}
	}

	story := models.Story{
		ProfileID:   profileID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Prompt:      req.Prompt,
		AudioURL:    audioURL,
		IsPublic:    false,
	}

	if err := h.db.Create(&story).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save story"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"story": story})
}

// List returns the caller's saved stories, newest first
func (h *LibraryHandler) List(c *gin.Context) {
	profileID, exists := middleware.GetCurrentProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var stories []models.Story
	if err := h.db.Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&stories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stories": stories})
}
