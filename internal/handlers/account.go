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

type AccountHandler struct {
	log      *logger.Logger
	accounts repos.AdAccountRepo
	sync     services.SyncService
}

func NewAccountHandler(log *logger.Logger, accounts repos.AdAccountRepo, sync services.SyncService) *AccountHandler {
	return &AccountHandler{
		log:      log.With("handler", "AccountHandler"),
		accounts: accounts,
		sync:     sync,
	}
}

// POST /api/accounts
func (h *AccountHandler) RegisterAccount(c *gin.Context) {
	var body struct {
		CustomerID string `json:"customer_id" binding:"required"`
		Name       string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := h.accounts.Upsert(c.Request.Context(), nil, &types.AdAccount{
		CustomerID: body.CustomerID,
		Name:       body.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GET /api/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GET /api/accounts/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	account, err := h.accounts.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// POST /api/accounts/:id/sync
// Pull the trailing-window ad report and upsert creatives plus metrics.
func (h *AccountHandler) SyncAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	out, err := h.sync.SyncAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
