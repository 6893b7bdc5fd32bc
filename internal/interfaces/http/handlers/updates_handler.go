package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
)

// UpdatesHandler serves the recent-activity view.
type UpdatesHandler struct {
	events tracking.EventRepository
}

// NewUpdatesHandler constructs an UpdatesHandler.
func NewUpdatesHandler(events tracking.EventRepository) *UpdatesHandler {
	return &UpdatesHandler{events: events}
}

// Recent handles GET /api/v1/updates?days=&codes=&grouped=.
// The window is measured against the upstream event date.
func (h *UpdatesHandler) Recent(c *gin.Context) {
	days := queryInt(c, "days", 7)

	var codes []string
	if raw := c.Query("codes"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}

	ctx := c.Request.Context()
	if c.Query("grouped") == "true" {
		groups, err := h.events.RecentGrouped(ctx, days, codes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": days, "patents": groups, "count": len(groups)})
		return
	}

	events, err := h.events.Recent(ctx, days, codes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "events": events, "count": len(events)})
}

// Codes handles GET /api/v1/updates/codes, listing every event code seen so
// far for building filter UIs.
func (h *UpdatesHandler) Codes(c *gin.Context) {
	codes, err := h.events.DistinctCodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	type codeView struct {
		Code        string `json:"code"`
		Label       string `json:"label,omitempty"`
		Significant bool   `json:"significant"`
	}
	views := make([]codeView, 0, len(codes))
	for _, code := range codes {
		views = append(views, codeView{
			Code:        code,
			Label:       tracking.SignificantEventLabel(code),
			Significant: tracking.IsSignificantEvent(code),
		})
	}
	c.JSON(http.StatusOK, gin.H{"codes": views})
}
