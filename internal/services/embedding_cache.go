package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/modules/optimization"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/types"
)

// dbEmbeddingCache is the durable tier: vectors live in the ad_embedding
// table and survive restarts and redis evictions.
type dbEmbeddingCache struct {
	embeddings repos.AdEmbeddingRepo
	log        *logger.Logger
	model      string
}

func NewDBEmbeddingCache(embeddings repos.AdEmbeddingRepo, log *logger.Logger, model string) optimization.EmbeddingCache {
	return &dbEmbeddingCache{
		embeddings: embeddings,
		log:        log.With("service", "DBEmbeddingCache"),
		model:      model,
	}
}

func (c *dbEmbeddingCache) Get(ctx context.Context, adID uuid.UUID, textHash string) ([]float32, bool) {
	rows, err := c.embeddings.GetByAdIDs(ctx, nil, []uuid.UUID{adID})
	if err != nil {
		c.log.Warn("embedding lookup failed", "ad_id", adID.String(), "error", err)
		return nil, false
	}
	for _, row := range rows {
		if row.TextHash != textHash {
			continue
		}
		var vec []float32
		if err := json.Unmarshal(row.Vector, &vec); err != nil {
			c.log.Warn("stored embedding corrupt", "ad_id", adID.String(), "error", err)
			return nil, false
		}
		return vec, true
	}
	return nil, false
}

func (c *dbEmbeddingCache) Put(ctx context.Context, adID uuid.UUID, textHash string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	row := &types.AdEmbedding{AdID: adID, TextHash: textHash, Vector: raw, Model: c.model}
	if err := c.embeddings.Upsert(ctx, nil, []*types.AdEmbedding{row}); err != nil {
		c.log.Warn("embedding persist failed", "ad_id", adID.String(), "error", err)
	}
}

// layeredEmbeddingCache reads redis first, then postgres, and backfills the
// faster tier on a lower-tier hit.
type layeredEmbeddingCache struct {
	hot  optimization.EmbeddingCache
	cold optimization.EmbeddingCache
}

func NewLayeredEmbeddingCache(hot, cold optimization.EmbeddingCache) optimization.EmbeddingCache {
	if hot == nil {
		return cold
	}
	if cold == nil {
		return hot
	}
	return &layeredEmbeddingCache{hot: hot, cold: cold}
}

func (c *layeredEmbeddingCache) Get(ctx context.Context, adID uuid.UUID, textHash string) ([]float32, bool) {
	if vec, ok := c.hot.Get(ctx, adID, textHash); ok {
		return vec, true
	}
	vec, ok := c.cold.Get(ctx, adID, textHash)
	if ok {
		c.hot.Put(ctx, adID, textHash, vec)
	}
	return vec, ok
}

func (c *layeredEmbeddingCache) Put(ctx context.Context, adID uuid.UUID, textHash string, vec []float32) {
	c.hot.Put(ctx, adID, textHash, vec)
	c.cold.Put(ctx, adID, textHash, vec)
}
