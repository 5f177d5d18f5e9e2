package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/services"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdHandler struct {
	log          *logger.Logger
	ads          repos.AdRepo
	runs         repos.ScoreRunRepo
	optimization services.OptimizationService
}

func NewAdHandler(log *logger.Logger, ads repos.AdRepo, runs repos.ScoreRunRepo, osvc services.OptimizationService) *AdHandler {
	return &AdHandler{
		log:          log.With("handler", "AdHandler"),
		ads:          ads,
		runs:         runs,
		optimization: osvc,
	}
}

// GET /api/accounts/:id/ads?bucket=BEST
func (h *AdHandler) ListAds(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var ads []*types.Ad
	if bucket := c.Query("bucket"); bucket != "" {
		switch types.AdBucket(bucket) {
		case types.AdBucketBest, types.AdBucketWorst, types.AdBucketUnknown:
			ads, err = h.ads.ListByAccountAndBucket(c.Request.Context(), nil, accountID, types.AdBucket(bucket))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown bucket: " + bucket})
			return
		}
	} else {
		ads, err = h.ads.ListByAccount(c.Request.Context(), nil, accountID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

// GET /api/ads/:id
func (h *AdHandler) GetAd(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	ad, err := h.ads.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

// POST /api/accounts/:id/classify
// Rescore the whole account and write buckets back.
func (h *AdHandler) ClassifyAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	summary, err := h.optimization.ClassifyAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/accounts/:id/score-runs
func (h *AdHandler) ListScoreRuns(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	runs, err := h.runs.ListByAccount(c.Request.Context(), nil, accountID, 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score_runs": runs})
}
