package optimization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

// EmbeddingClient is the embedding capability; openai.Client satisfies it.
type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// EmbeddingCache stores vectors keyed by (ad id, text hash). A hash mismatch
// is a miss: text changes invalidate cached vectors. Implementations must be
// safe under concurrent access; a lost race on Put is fine, last write wins.
type EmbeddingCache interface {
	Get(ctx context.Context, adID uuid.UUID, textHash string) ([]float32, bool)
	Put(ctx context.Context, adID uuid.UUID, textHash string, vec []float32)
}

type ExemplarMatch struct {
	Ad         *types.Ad
	Similarity float64
}

type FindSimilarDeps struct {
	Log   *logger.Logger
	AI    EmbeddingClient
	Cache EmbeddingCache
}

type FindSimilarInput struct {
	Target *types.Ad
	Pool   []*types.Ad
	TopK   int
}

// FindSimilar returns the top-k pool ads most similar to the target by
// cosine similarity over text embeddings. The caller restricts the pool
// (BEST bucket, same account); this function only ranks. Ties break by
// creative identifier ascending, and cache hits reproduce earlier rankings
// bit-for-bit since the stored vectors are reused unchanged.
func FindSimilar(ctx context.Context, deps FindSimilarDeps, in FindSimilarInput) ([]ExemplarMatch, error) {
	if deps.Log == nil || deps.AI == nil {
		return nil, fmt.Errorf("find_similar: missing deps")
	}
	if in.Target == nil {
		return nil, fmt.Errorf("find_similar: missing target")
	}
	if in.TopK <= 0 {
		in.TopK = 5
	}
	if len(in.Pool) == 0 {
		return []ExemplarMatch{}, nil
	}

	ads := make([]*types.Ad, 0, len(in.Pool)+1)
	ads = append(ads, in.Target)
	ads = append(ads, in.Pool...)

	vectors, err := embedAds(ctx, deps, ads)
	if err != nil {
		return nil, err
	}

	targetVec := vectors[0]
	matches := make([]ExemplarMatch, 0, len(in.Pool))
	for i, ad := range in.Pool {
		matches = append(matches, ExemplarMatch{
			Ad:         ad,
			Similarity: cosineSimilarity(targetVec, vectors[i+1]),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Ad.ExternalID != matches[j].Ad.ExternalID {
			return matches[i].Ad.ExternalID < matches[j].Ad.ExternalID
		}
		return matches[i].Ad.ID.String() < matches[j].Ad.ID.String()
	})

	if len(matches) > in.TopK {
		matches = matches[:in.TopK]
	}
	return matches, nil
}

// embedAds resolves one vector per ad, reading the cache first and batching
// all misses into a single embedding call.
func embedAds(ctx context.Context, deps FindSimilarDeps, ads []*types.Ad) ([][]float32, error) {
	vectors := make([][]float32, len(ads))
	var missIdx []int
	var missTexts []string

	for i, ad := range ads {
		text := AdText(ad)
		hash := TextHash(text)
		if deps.Cache != nil {
			if vec, ok := deps.Cache.Get(ctx, ad.ID, hash); ok {
				vectors[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		embedded, err := deps.AI.Embed(ctx, missTexts)
		if err != nil {
			return nil, &EmbeddingServiceError{Err: err}
		}
		if len(embedded) != len(missTexts) {
			return nil, &EmbeddingServiceError{
				Err: fmt.Errorf("embedding count mismatch: want %d, got %d", len(missTexts), len(embedded)),
			}
		}
		for j, idx := range missIdx {
			vectors[idx] = embedded[j]
			if deps.Cache != nil {
				deps.Cache.Put(ctx, ads[idx].ID, TextHash(missTexts[j]), embedded[j])
			}
		}
	}
	return vectors, nil
}

// AdText is the canonical embeddable text of a creative: headlines then
// descriptions, in stored order.
func AdText(ad *types.Ad) string {
	var parts []string
	if hs := ad.HeadlineTexts(); len(hs) > 0 {
		parts = append(parts, strings.Join(hs, " | "))
	}
	if ds := ad.DescriptionTexts(); len(ds) > 0 {
		parts = append(parts, strings.Join(ds, " "))
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "empty ad"
	}
	return text
}

func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na <= 0 || nb <= 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
