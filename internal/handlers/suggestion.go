package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/services"
)

type SuggestionHandler struct {
	log          *logger.Logger
	suggestions  repos.SuggestionRepo
	optimization services.OptimizationService
}

func NewSuggestionHandler(log *logger.Logger, suggestions repos.SuggestionRepo, osvc services.OptimizationService) *SuggestionHandler {
	return &SuggestionHandler{
		log:          log.With("handler", "SuggestionHandler"),
		suggestions:  suggestions,
		optimization: osvc,
	}
}

// POST /api/ads/:id/suggestions
// Generate new variants for one creative from the account's top performers.
func (h *SuggestionHandler) GenerateForAd(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	out, err := h.optimization.GenerateForAd(c.Request.Context(), adID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions": out.Suggestions,
		"results":     out.Results,
	})
}

// GET /api/ads/:id/suggestions
func (h *SuggestionHandler) ListForAd(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	rows, err := h.suggestions.ListByAd(c.Request.Context(), nil, adID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": rows})
}

// POST /api/accounts/:id/generate
// Fan out generation over the whole WORST bucket.
func (h *SuggestionHandler) GenerateForWorst(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	outcomes, err := h.optimization.GenerateForWorst(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// GET /api/accounts/:id/suggestions?limit=100
func (h *SuggestionHandler) ListForAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	rows, err := h.suggestions.ListByAccount(c.Request.Context(), nil, accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": rows})
}
