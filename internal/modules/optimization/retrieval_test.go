package optimization

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

// fakeEmbedder returns a fixed vector per input text and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
	batched []int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	f.batched = append(f.batched, len(inputs))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float32{0.1, 0.1, 0.1}
		}
		out[i] = vec
	}
	return out, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]float32
}

func newMemCache() *memCache { return &memCache{data: map[string][]float32{}} }

func (c *memCache) Get(_ context.Context, adID uuid.UUID, hash string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.data[adID.String()+":"+hash]
	return vec, ok
}

func (c *memCache) Put(_ context.Context, adID uuid.UUID, hash string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[adID.String()+":"+hash] = vec
}

func textAd(externalID string, headlines ...string) *types.Ad {
	return &types.Ad{
		ID:         uuid.New(),
		ExternalID: externalID,
		Status:     "ENABLED",
		Headlines:  types.AssetJSON(headlines),
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestFindSimilarRanksByCosine(t *testing.T) {
	target := textAd("t-1", "Running Shoes Sale")
	near := textAd("p-1", "Trail Running Shoes")
	mid := textAd("p-2", "Leather Office Chairs")
	far := textAd("p-3", "Dog Food Subscription")

	emb := &fakeEmbedder{vectors: map[string][]float32{
		AdText(target): {1, 0, 0},
		AdText(near):   {0.9, 0.1, 0},
		AdText(mid):    {0.3, 0.9, 0},
		AdText(far):    {0, 0, 1},
	}}

	matches, err := FindSimilar(context.Background(), FindSimilarDeps{Log: testLogger(t), AI: emb}, FindSimilarInput{
		Target: target,
		Pool:   []*types.Ad{far, mid, near},
		TopK:   2,
	})
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Ad.ExternalID != "p-1" || matches[1].Ad.ExternalID != "p-2" {
		t.Fatalf("unexpected order: %s, %s", matches[0].Ad.ExternalID, matches[1].Ad.ExternalID)
	}
	if matches[0].Similarity <= matches[1].Similarity {
		t.Fatalf("similarities not descending: %f, %f", matches[0].Similarity, matches[1].Similarity)
	}
	if emb.calls != 1 || emb.batched[0] != 4 {
		t.Fatalf("expected one batched embed call of 4 texts, got calls=%d batches=%v", emb.calls, emb.batched)
	}
}

func TestFindSimilarTieBreaksByExternalID(t *testing.T) {
	target := textAd("t-1", "Anything")
	twinB := textAd("b-twin", "Same Text")
	twinA := textAd("a-twin", "Other Words")

	// Both pool ads sit at the same similarity to the target.
	emb := &fakeEmbedder{vectors: map[string][]float32{
		AdText(target): {1, 0, 0},
		AdText(twinA):  {0, 1, 0},
		AdText(twinB):  {0, 0, 1},
	}}

	matches, err := FindSimilar(context.Background(), FindSimilarDeps{Log: testLogger(t), AI: emb}, FindSimilarInput{
		Target: target,
		Pool:   []*types.Ad{twinB, twinA},
		TopK:   2,
	})
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if matches[0].Ad.ExternalID != "a-twin" {
		t.Fatalf("equal similarity should order by identifier, got %s first", matches[0].Ad.ExternalID)
	}
}

func TestFindSimilarUsesCacheAcrossRuns(t *testing.T) {
	target := textAd("t-1", "Running Shoes Sale")
	pool := []*types.Ad{
		textAd("p-1", "Trail Running Shoes"),
		textAd("p-2", "Leather Office Chairs"),
	}
	emb := &fakeEmbedder{vectors: map[string][]float32{
		AdText(target):  {1, 0, 0},
		AdText(pool[0]): {0.9, 0.1, 0},
		AdText(pool[1]): {0.1, 0.9, 0},
	}}
	cache := newMemCache()
	deps := FindSimilarDeps{Log: testLogger(t), AI: emb, Cache: cache}
	in := FindSimilarInput{Target: target, Pool: pool, TopK: 2}

	first, err := FindSimilar(context.Background(), deps, in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := FindSimilar(context.Background(), deps, in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("second run should be fully cached, embed called %d times", emb.calls)
	}
	for i := range first {
		if first[i].Ad.ExternalID != second[i].Ad.ExternalID || first[i].Similarity != second[i].Similarity {
			t.Fatalf("cached run diverged at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestFindSimilarCacheKeyedByTextHash(t *testing.T) {
	target := textAd("t-1", "Running Shoes Sale")
	pool := []*types.Ad{textAd("p-1", "Trail Running Shoes")}
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	cache := newMemCache()
	deps := FindSimilarDeps{Log: testLogger(t), AI: emb, Cache: cache}

	if _, err := FindSimilar(context.Background(), deps, FindSimilarInput{Target: target, Pool: pool, TopK: 1}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Edit the pool ad's text; its cached vector must not be reused.
	pool[0].Headlines = types.AssetJSON([]string{"Completely New Creative"})
	if _, err := FindSimilar(context.Background(), deps, FindSimilarInput{Target: target, Pool: pool, TopK: 1}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if emb.calls != 2 || emb.batched[1] != 1 {
		t.Fatalf("edited text should miss the cache: calls=%d batches=%v", emb.calls, emb.batched)
	}
}

func TestFindSimilarWrapsEmbedFailure(t *testing.T) {
	target := textAd("t-1", "Running Shoes Sale")
	emb := &fakeEmbedder{err: errors.New("upstream 500")}

	_, err := FindSimilar(context.Background(), FindSimilarDeps{Log: testLogger(t), AI: emb}, FindSimilarInput{
		Target: target,
		Pool:   []*types.Ad{textAd("p-1", "Trail Running Shoes")},
		TopK:   1,
	})
	var svcErr *EmbeddingServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.9999 {
		t.Fatalf("identical vectors should be ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors should be 0, got %f", got)
	}
	if got := cosineSimilarity(nil, []float32{1}); got != 0 {
		t.Fatalf("empty vector should be 0, got %f", got)
	}
}
