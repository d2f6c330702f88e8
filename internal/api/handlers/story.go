package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/gate"
	"github.com/razberry-fun/razberry-api/internal/logger"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/services"
	"github.com/razberry-fun/razberry-api/internal/tts"
)

type StoryHandler struct {
	service   *services.GenerationService
	usage     *services.UsageService
	gateStore *gate.SessionStore
}

func NewStoryHandler(service *services.GenerationService, usage *services.UsageService, gateStore *gate.SessionStore) *StoryHandler {
	return &StoryHandler{
		service:   service,
		usage:     usage,
		gateStore: gateStore,
	}
}

type StoryRequest struct {
	Prompt      string `json:"prompt"`
	VoiceGender string `json:"voiceGender"`
	IsSample    bool   `json:"isSample"`
}

// Generate handles POST /api/story. Anonymous visitors get one free
// sample; after that the submit is silently redirected to the pricing
// page rather than answered with an error body.
func (h *StoryHandler) Generate(c *gin.Context) {
	profile, authenticated := middleware.GetCurrentProfile(c)

	machine := gate.NewMachine(h.gateStore.Load(c.Request), authenticated)
	if !machine.CanSubmit() {
		c.Redirect(http.StatusSeeOther, "/pricing")
		c.Abort()
		return
	}

	var req StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Anonymous visitors only ever get the teaser
	sampleMode := req.IsSample
	if !authenticated {
		sampleMode = true
	}

	genRequest := &services.GenerationRequest{
		Prompt:     req.Prompt,
		SampleMode: sampleMode,
		Voice:      tts.ParseVoice(req.VoiceGender),
		RequestID:  c.GetString("request_id"),
	}
	if authenticated {
		genRequest.ProfileID = &profile.ID
	}

	outcome := h.service.Generate(c.Request.Context(), genRequest)

	switch outcome.Kind {
	case services.OutcomeInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": outcome.Message})
		return

	case services.OutcomeMisconfigured:
		// Never leak which credential is missing
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return

	case services.OutcomeFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": outcome.Message})
		return
	}

	// Story succeeded; charge the gate and usage counters
	h.chargeUsage(c, machine, authenticated, profileID(genRequest))

	body := gin.H{
		"storyTitle":       outcome.Story.Title,
		"storyDescription": outcome.Story.Description,
		"storyText":        outcome.Story.Body,
	}

	if outcome.Kind == services.OutcomeFull {
		body["audio"] = gin.H{
			"mime":   outcome.Audio.MimeType,
			"base64": base64.StdEncoding.EncodeToString(outcome.Audio.Bytes),
		}
		c.JSON(http.StatusOK, body)
		return
	}

	// Partial: story without audio. A failure the provider identified
	// gets surfaced as a bad gateway; anything else degrades quietly.
	body["error"] = outcome.AudioErr.Error()
	if outcome.AudioProviderDown {
		c.JSON(http.StatusBadGateway, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// chargeUsage marks the cookie gate for anonymous visitors and the
// profile counter for signed-in ones.
func (h *StoryHandler) chargeUsage(c *gin.Context, machine *gate.Machine, authenticated bool, profileID *uint) {
	if !authenticated {
		machine.MarkFreeUsed()
		if err := h.gateStore.Save(c.Writer, c.Request, machine.Flags()); err != nil {
			logger.Warn("Failed to persist gate flags", logger.Fields{
				"request_id": c.GetString("request_id"),
				"error":      err.Error(),
			})
		}
		return
	}

	if h.usage != nil && profileID != nil {
		if err := h.usage.ConsumeFreeGeneration(c.Request.Context(), *profileID); err != nil {
			logger.Error("Failed to charge free generation", err, logger.Fields{
				"request_id": c.GetString("request_id"),
				"profile_id": *profileID,
			})
		}
	}
}

func profileID(req *services.GenerationRequest) *uint {
	return req.ProfileID
}
