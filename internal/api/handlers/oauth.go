package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/models"
	"gorm.io/gorm"
)

type OAuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewOAuthHandler(db *gorm.DB, cfg *config.Config) *OAuthHandler {
	// Initialize gothic session store
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Environment == "production"
	gothic.Store = store

	// Configure OAuth providers
	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.AppURL+"/api/auth/google/callback",
			"email", "profile",
		),
		github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.AppURL+"/api/auth/github/callback",
			"user:email",
		),
	)

	return &OAuthHandler{db: db, cfg: cfg}
}

// BeginAuth redirects the visitor to the OAuth provider login
func (h *OAuthHandler) BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider != providerGoogle && provider != providerGitHub {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported provider"})
		return
	}

	// Set provider in query param for gothic
	q := c.Request.URL.Query()
	q.Add("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// Callback handles the OAuth provider callback, issues tokens, and sends
// the user back into the app.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	if provider != providerGoogle && provider != providerGitHub {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported provider"})
		return
	}

	q := c.Request.URL.Query()
	q.Add("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth authentication failed"})
		return
	}

	profile, isNew, err := h.findOrCreateProfile(&gothUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
		return
	}

	authHandler := &AuthHandler{db: h.db, cfg: h.cfg}
	accessToken, err := authHandler.generateAccessToken(profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	refreshToken, err := authHandler.generateRefreshToken(profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	authHandler.setAuthCookies(c, accessToken, refreshToken)

	redirectURL := fmt.Sprintf("/auth/callback?is_new=%v", isNew)
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}

// findOrCreateProfile finds an existing OAuth identity or creates a new profile
func (h *OAuthHandler) findOrCreateProfile(gothUser *goth.User) (*models.Profile, bool, error) {
	var identity models.OAuthIdentity

	err := h.db.Where("provider = ? AND provider_user_id = ?",
		gothUser.Provider, gothUser.UserID).
		Preload("Profile").
		First(&identity).Error

	if err == nil {
		return &identity.Profile, false, nil
	}

	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	return h.createProfile(gothUser)
}

// createProfile creates a new profile from OAuth data, linking to an
// existing profile when the email is already registered.
func (h *OAuthHandler) createProfile(gothUser *goth.User) (*models.Profile, bool, error) {
	tx := h.db.Begin()

	var existing models.Profile
	emailExists := tx.Where("email = ?", gothUser.Email).First(&existing).Error == nil

	if emailExists {
		identity := models.OAuthIdentity{
			ProfileID:      existing.ID,
			Provider:       gothUser.Provider,
			ProviderUserID: gothUser.UserID,
		}

		if err := tx.Create(&identity).Error; err != nil {
			tx.Rollback()
			return nil, false, err
		}

		tx.Commit()
		return &existing, false, nil
	}

	profile := models.Profile{
		Email:             gothUser.Email,
		Name:              gothUser.Name,
		AvatarURL:         gothUser.AvatarURL,
		AudioMinutesLimit: models.FreeAudioMinutes,
	}

	if err := tx.Create(&profile).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}

	identity := models.OAuthIdentity{
		ProfileID:      profile.ID,
		Provider:       gothUser.Provider,
		ProviderUserID: gothUser.UserID,
	}

	if err := tx.Create(&identity).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}

	tx.Commit()
	return &profile, true, nil
}
