package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/googleads"
	"github.com/yungbote/adpilot-backend/internal/modules/optimization"
	"github.com/yungbote/adpilot-backend/internal/platform/apierr"
)

// respondError maps domain errors onto HTTP statuses in one place so every
// handler reports failures the same way.
func respondError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Error(), "code": apiErr.Code})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if errors.Is(err, optimization.ErrNoExemplarsAvailable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "no_exemplars"})
		return
	}

	var parseErr *optimization.GenerationParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "generation_unparseable"})
		return
	}
	var embErr *optimization.EmbeddingServiceError
	if errors.As(err, &embErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "embedding_unavailable"})
		return
	}
	var exhausted *googleads.DegradationExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "ads_api_degraded"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
