package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/application/poller"
)

// PollHandler exposes the scheduler: manual triggers and status.
type PollHandler struct {
	poller *poller.Poller
}

// NewPollHandler constructs a PollHandler.
func NewPollHandler(p *poller.Poller) *PollHandler {
	return &PollHandler{poller: p}
}

type refreshRequest struct {
	ApplicationNumbers []string `json:"application_numbers"`
}

// Refresh handles POST /api/v1/refresh.  The request is accepted
// asynchronously; when a cycle is already running it collapses into that
// cycle instead of queueing a second one.
func (h *PollHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: "COMMON_002", Message: "malformed request body"})
			return
		}
	}

	started := h.poller.RefreshNow(req.ApplicationNumbers...)
	c.JSON(http.StatusAccepted, gin.H{
		"started":   started,
		"collapsed": !started,
	})
}

// Status handles GET /api/v1/poller, reporting scheduler state, the
// effective interval, and the last cycle summary.
func (h *PollHandler) Status(c *gin.Context) {
	resp := gin.H{
		"status":   h.poller.Status(),
		"interval": h.poller.Interval(c.Request.Context()).String(),
	}
	if last := h.poller.LastCycle(); last != nil {
		resp["last_cycle"] = last
	}
	c.JSON(http.StatusOK, resp)
}
