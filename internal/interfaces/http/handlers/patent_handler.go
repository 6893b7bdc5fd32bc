package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
)

// PatentHandler serves the tracked-patent resources.
type PatentHandler struct {
	patents     tracking.PatentRepository
	events      tracking.EventRepository
	continuity  tracking.ContinuityRepository
	documents   tracking.DocumentRepository
	assignments tracking.AssignmentRepository
	logger      logging.Logger
}

// NewPatentHandler constructs a PatentHandler.
func NewPatentHandler(
	patents tracking.PatentRepository,
	events tracking.EventRepository,
	continuity tracking.ContinuityRepository,
	documents tracking.DocumentRepository,
	assignments tracking.AssignmentRepository,
	logger logging.Logger,
) *PatentHandler {
	return &PatentHandler{
		patents:     patents,
		events:      events,
		continuity:  continuity,
		documents:   documents,
		assignments: assignments,
		logger:      logger,
	}
}

// patentView decorates a patent row with its display forms and the USPTO
// portal links for the application.
type patentView struct {
	tracking.Patent
	DisplayNumber            string `json:"display_number"`
	PatentCenterURL          string `json:"patent_center_url"`
	PatentCenterDocumentsURL string `json:"patent_center_documents_url"`
	PublicPairURL            string `json:"public_pair_url"`
}

func newPatentView(p tracking.Patent) patentView {
	return patentView{
		Patent:                   p,
		DisplayNumber:            tracking.FormatApplicationNumber(p.ApplicationNumber),
		PatentCenterURL:          tracking.PatentCenterURL(p.ApplicationNumber),
		PatentCenterDocumentsURL: tracking.PatentCenterDocumentsURL(p.ApplicationNumber),
		PublicPairURL:            tracking.PublicPairURL(p.ApplicationNumber),
	}
}

// List handles GET /api/v1/patents.
func (h *PatentHandler) List(c *gin.Context) {
	patents, err := h.patents.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]patentView, 0, len(patents))
	for _, p := range patents {
		views = append(views, newPatentView(p))
	}
	c.JSON(http.StatusOK, gin.H{"patents": views, "count": len(views)})
}

type addPatentRequest struct {
	ApplicationNumber string `json:"application_number" binding:"required"`
}

// Add handles POST /api/v1/patents.
func (h *PatentHandler) Add(c *gin.Context) {
	var req addPatentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "COMMON_002", Message: "application_number is required"})
		return
	}

	p, err := h.patents.Add(c.Request.Context(), req.ApplicationNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("tracking new application",
		logging.String("application_number", p.ApplicationNumber))
	c.JSON(http.StatusCreated, newPatentView(*p))
}

// Get handles GET /api/v1/patents/:number, returning the patent together
// with its owned record sets.
func (h *PatentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.patents.FindByNumber(ctx, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	continuity, err := h.continuity.ForPatent(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	documents, err := h.documents.ForPatent(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	assignments, err := h.assignments.ForPatent(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patent":      newPatentView(*p),
		"continuity":  continuity,
		"documents":   documents,
		"assignments": assignments,
	})
}

// Remove handles DELETE /api/v1/patents/:number.
func (h *PatentHandler) Remove(c *gin.Context) {
	number := c.Param("number")
	removed, err := h.patents.Remove(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "DB_003", Message: "application is not tracked"})
		return
	}
	h.logger.Info("stopped tracking application",
		logging.String("application_number", tracking.NormalizeApplicationNumber(number)))
	c.Status(http.StatusNoContent)
}

// Events handles GET /api/v1/patents/:number/events.  Fetching the history
// marks it seen: the caller has looked at it.
func (h *PatentHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.patents.FindByNumber(ctx, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	events, err := h.events.ForPatent(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.events.MarkSeen(ctx, p.ID); err != nil {
		h.logger.Warn("failed to mark events seen",
			logging.String("application_number", p.ApplicationNumber),
			logging.Err(err))
	}

	type eventView struct {
		tracking.Event
		Significant bool `json:"significant"`
	}
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		views = append(views, eventView{Event: ev, Significant: tracking.IsSignificantEvent(ev.EventCode)})
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "count": len(views)})
}
