package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/adpilot-backend/internal/platform/envutil"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
)

func NewClient(log *logger.Logger) (*goredis.Client, error) {
	addr := envutil.Str("REDIS_ADDR", "localhost:6379")
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: envutil.Str("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info("Connected to redis", "addr", addr)
	return client, nil
}

// EmbeddingCache is the hot tier for ad text embeddings, keyed by ad id and
// text hash so edited creatives miss naturally. Read and write failures are
// logged and swallowed: redis being down degrades to recomputing embeddings,
// it never fails a request.
type EmbeddingCache struct {
	client *goredis.Client
	log    *logger.Logger
	ttl    time.Duration
}

func NewEmbeddingCache(client *goredis.Client, log *logger.Logger) *EmbeddingCache {
	ttlHours := envutil.Int("EMBEDDING_CACHE_TTL_HOURS", 24*7)
	return &EmbeddingCache{
		client: client,
		log:    log.With("service", "RedisEmbeddingCache"),
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

func cacheKey(adID uuid.UUID, textHash string) string {
	return "ademb:" + adID.String() + ":" + textHash
}

func (c *EmbeddingCache) Get(ctx context.Context, adID uuid.UUID, textHash string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, cacheKey(adID, textHash)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("embedding cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn("embedding cache entry corrupt, dropping", "key", cacheKey(adID, textHash))
		c.client.Del(ctx, cacheKey(adID, textHash))
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) Put(ctx context.Context, adID uuid.UUID, textHash string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(adID, textHash), raw, c.ttl).Err(); err != nil {
		c.log.Warn("embedding cache write failed", "error", err)
	}
}
