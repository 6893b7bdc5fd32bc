package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/application/poller"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// SettingsHandler serves the key/value settings endpoints.  Writes to
// poll_interval are routed through the poller so that bounds are enforced
// and the running schedule picks up the new value immediately.
type SettingsHandler struct {
	settings tracking.SettingsRepository
	poller   *poller.Poller
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings tracking.SettingsRepository, p *poller.Poller) *SettingsHandler {
	return &SettingsHandler{settings: settings, poller: p}
}

var knownSettings = map[string]bool{
	tracking.SettingPollInterval: true,
	tracking.SettingLastPoll:     true,
}

// Get handles GET /api/v1/settings/:key.
func (h *SettingsHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if !knownSettings[key] {
		respondError(c, appErrors.NotFound("unknown setting "+key))
		return
	}

	value, err := h.settings.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type putSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// Put handles PUT /api/v1/settings/:key.  last_poll is maintained by the
// poller and cannot be written through the API.
func (h *SettingsHandler) Put(c *gin.Context) {
	key := c.Param("key")

	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "COMMON_002", Message: "malformed request body"})
		return
	}

	switch key {
	case tracking.SettingPollInterval:
		d, err := time.ParseDuration(req.Value)
		if err != nil {
			respondError(c, appErrors.InvalidParam("value must be a duration such as 24h or 90m"))
			return
		}
		if err := h.poller.SetInterval(c.Request.Context(), d); err != nil {
			respondError(c, err)
			return
		}
	case tracking.SettingLastPoll:
		respondError(c, appErrors.InvalidParam("last_poll is read-only"))
		return
	default:
		respondError(c, appErrors.NotFound("unknown setting "+key))
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
