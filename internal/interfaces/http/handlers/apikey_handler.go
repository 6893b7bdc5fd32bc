package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/secrets"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/uspto"
	"github.com/uspto-tools/pairwatch/pkg/errors"
)

// APIKeyHandler manages the stored USPTO API key.  Keys are validated
// against the live API before they are persisted; the key itself is never
// echoed back.
type APIKeyHandler struct {
	store  secrets.Store
	client uspto.Client
	logger logging.Logger
}

// NewAPIKeyHandler constructs an APIKeyHandler.
func NewAPIKeyHandler(store secrets.Store, client uspto.Client, logger logging.Logger) *APIKeyHandler {
	return &APIKeyHandler{store: store, client: client, logger: logger}
}

type putAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Put handles PUT /api/v1/apikey.
func (h *APIKeyHandler) Put(c *gin.Context) {
	var req putAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "COMMON_002", Message: "malformed request body"})
		return
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		respondError(c, errors.InvalidParam("api_key must not be empty"))
		return
	}

	ok, err := h.client.ValidateAPIKey(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, errors.InvalidParam("the USPTO API rejected this key"))
		return
	}

	if err := h.store.Set(secrets.APIKeyName, key); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("api key updated")
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

// Get handles GET /api/v1/apikey, reporting whether a key is configured
// without revealing it.
func (h *APIKeyHandler) Get(c *gin.Context) {
	key, err := h.store.Get(secrets.APIKeyName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": key != ""})
}

// Delete handles DELETE /api/v1/apikey.
func (h *APIKeyHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(secrets.APIKeyName); err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("api key removed")
	c.Status(http.StatusNoContent)
}
