package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/gate"
	"github.com/razberry-fun/razberry-api/internal/middleware"
)

type GateHandler struct {
	store *gate.SessionStore
}

func NewGateHandler(store *gate.SessionStore) *GateHandler {
	return &GateHandler{store: store}
}

func (h *GateHandler) machine(c *gin.Context) *gate.Machine {
	_, authenticated := middleware.GetCurrentProfile(c)
	return gate.NewMachine(h.store.Load(c.Request), authenticated)
}

func (h *GateHandler) respond(c *gin.Context, m *gate.Machine) {
	if err := h.store.Save(c.Writer, c.Request, m.Flags()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save gate state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     m.State(),
		"canSubmit": m.CanSubmit(),
	})
}

// Status reports the visitor's gate state
func (h *GateHandler) Status(c *gin.Context) {
	m := h.machine(c)
	c.JSON(http.StatusOK, gin.H{
		"state":     m.State(),
		"canSubmit": m.CanSubmit(),
	})
}

// Continue handles the "continue reading" action on a teaser
func (h *GateHandler) Continue(c *gin.Context) {
	m := h.machine(c)
	m.Continue()
	h.respond(c, m)
}

// Dismiss closes the paywall overlay
func (h *GateHandler) Dismiss(c *gin.Context) {
	m := h.machine(c)
	m.Dismiss()
	h.respond(c, m)
}
