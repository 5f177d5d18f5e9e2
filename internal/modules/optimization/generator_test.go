package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/types"
)

// fakeGenClient serves canned embeddings and one canned generation response.
type fakeGenClient struct {
	fakeEmbedder
	response map[string]any
	genErr   error
	genCalls int
}

func (f *fakeGenClient) GenerateJSON(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.response, nil
}

func (f *fakeGenClient) Model() string { return "gpt-4o-mini" }

type fakeAdRepo struct {
	ads map[uuid.UUID]*types.Ad
}

func (f *fakeAdRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Ad, error) {
	ad, ok := f.ads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ad, nil
}

func (f *fakeAdRepo) ListByAccount(_ context.Context, _ *gorm.DB, accountID uuid.UUID) ([]*types.Ad, error) {
	var out []*types.Ad
	for _, ad := range f.ads {
		if ad.AdAccountID == accountID {
			out = append(out, ad)
		}
	}
	return out, nil
}

func (f *fakeAdRepo) ListByAccountAndBucket(_ context.Context, _ *gorm.DB, accountID uuid.UUID, bucket types.AdBucket) ([]*types.Ad, error) {
	var out []*types.Ad
	for _, ad := range f.ads {
		if ad.AdAccountID == accountID && ad.Bucket == bucket {
			out = append(out, ad)
		}
	}
	return out, nil
}

func (f *fakeAdRepo) SetBucket(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ types.AdBucket, _ *float64, _ string) error {
	return nil
}

func (f *fakeAdRepo) UpsertByExternalID(_ context.Context, _ *gorm.DB, _ []*types.Ad) error {
	return nil
}

type fakeSuggestionRepo struct {
	created []*types.Suggestion
}

func (f *fakeSuggestionRepo) Create(_ context.Context, _ *gorm.DB, suggestions []*types.Suggestion) ([]*types.Suggestion, error) {
	f.created = append(f.created, suggestions...)
	return suggestions, nil
}

func (f *fakeSuggestionRepo) ListByAd(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.Suggestion, error) {
	return f.created, nil
}

func (f *fakeSuggestionRepo) ListByAccount(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ int) ([]*types.Suggestion, error) {
	return f.created, nil
}

type fakeCallLogRepo struct {
	rows []*types.AICallLog
}

func (f *fakeCallLogRepo) Create(_ context.Context, _ *gorm.DB, row *types.AICallLog) error {
	f.rows = append(f.rows, row)
	return nil
}

func variantJSON(n int) map[string]any {
	variants := make([]any, 0, n)
	for i := 0; i < n; i++ {
		variants = append(variants, map[string]any{
			"headlines":    []any{fmt.Sprintf("Fresh Angle %d", i+1), "Shop Deals Today", "Save Big Now"},
			"descriptions": []any{"Free returns on every order.", "Trusted by a million customers."},
		})
	}
	return map[string]any{"variants": variants}
}

func genFixture(t *testing.T) (GenerateDeps, *types.Ad, *fakeGenClient, *fakeSuggestionRepo, *fakeCallLogRepo) {
	t.Helper()
	accountID := uuid.New()
	target := textAd("worst-1", "Old Tired Headline")
	target.AdAccountID = accountID
	target.Bucket = types.AdBucketWorst

	best1 := textAd("best-1", "Proven Winner Copy")
	best1.AdAccountID = accountID
	best1.Bucket = types.AdBucketBest
	best2 := textAd("best-2", "Top Converter Text")
	best2.AdAccountID = accountID
	best2.Bucket = types.AdBucketBest

	ai := &fakeGenClient{
		fakeEmbedder: fakeEmbedder{vectors: map[string][]float32{
			AdText(target): {1, 0, 0},
			AdText(best1):  {0.9, 0.1, 0},
			AdText(best2):  {0.2, 0.9, 0},
		}},
		response: variantJSON(3),
	}
	suggestions := &fakeSuggestionRepo{}
	callLogs := &fakeCallLogRepo{}
	deps := GenerateDeps{
		Log:         testLogger(t),
		AI:          ai,
		Ads:         &fakeAdRepo{ads: map[uuid.UUID]*types.Ad{target.ID: target, best1.ID: best1, best2.ID: best2}},
		Suggestions: suggestions,
		CallLogs:    callLogs,
	}
	return deps, target, ai, suggestions, callLogs
}

func TestGenerateSuggestionsHappyPath(t *testing.T) {
	deps, target, ai, repo, callLogs := genFixture(t)

	out, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if ai.genCalls != 1 {
		t.Fatalf("expected exactly one model call, got %d", ai.genCalls)
	}
	if len(out.Suggestions) != 3 || len(repo.created) != 3 {
		t.Fatalf("expected 3 persisted suggestions, got %d returned, %d created", len(out.Suggestions), len(repo.created))
	}
	if len(out.Exemplars) != 2 {
		t.Fatalf("expected both BEST ads as exemplars, got %d", len(out.Exemplars))
	}
	if out.Exemplars[0].Ad.ExternalID != "best-1" {
		t.Fatalf("expected the most similar exemplar first, got %s", out.Exemplars[0].Ad.ExternalID)
	}

	for _, s := range repo.created {
		if s.AdID != target.ID || s.AdAccountID != target.AdAccountID {
			t.Fatalf("suggestion mislinked: %+v", s)
		}
		if s.PromptVersion != PromptVersion || s.ModelUsed != "gpt-4o-mini" {
			t.Fatalf("missing provenance: version=%q model=%q", s.PromptVersion, s.ModelUsed)
		}
		var ids []string
		if err := json.Unmarshal(s.ExemplarIDs, &ids); err != nil || len(ids) != 2 {
			t.Fatalf("exemplar provenance malformed: %s", string(s.ExemplarIDs))
		}
		if !s.ValidationPassed {
			t.Fatalf("well-formed variant should pass validation: %+v", s)
		}
	}

	if len(callLogs.rows) != 1 || !callLogs.rows[0].Success || callLogs.rows[0].CallType != "generation" {
		t.Fatalf("expected one successful generation call log, got %+v", callLogs.rows)
	}
}

func TestGenerateSuggestionsSingleExemplar(t *testing.T) {
	deps, target, ai, repo, _ := genFixture(t)
	for _, ad := range deps.Ads.(*fakeAdRepo).ads {
		if ad.ExternalID == "best-2" {
			ad.Bucket = types.AdBucketUnknown
		}
	}

	out, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if ai.genCalls != 1 {
		t.Fatalf("expected exactly one model call, got %d", ai.genCalls)
	}
	if len(out.Exemplars) != 1 || out.Exemplars[0].Ad.ExternalID != "best-1" {
		t.Fatalf("expected the lone BEST ad as exemplar, got %+v", out.Exemplars)
	}
	if len(repo.created) != 3 {
		t.Fatalf("a single exemplar still yields the full variant count, got %d", len(repo.created))
	}
	for i, s := range repo.created {
		var ids []string
		if err := json.Unmarshal(s.ExemplarIDs, &ids); err != nil || len(ids) != 1 || ids[0] != "best-1" {
			t.Fatalf("suggestion %d exemplar provenance wrong: %s", i, string(s.ExemplarIDs))
		}
		var sims []float64
		if err := json.Unmarshal(s.SimilarityScores, &sims); err != nil || len(sims) != 1 {
			t.Fatalf("suggestion %d similarity provenance wrong: %s", i, string(s.SimilarityScores))
		}
		if sims[0] != out.Exemplars[0].Similarity {
			t.Fatalf("suggestion %d similarity %v != exemplar similarity %v", i, sims[0], out.Exemplars[0].Similarity)
		}
	}
}

func TestGenerateSuggestionsNoExemplars(t *testing.T) {
	deps, target, ai, repo, _ := genFixture(t)
	for _, ad := range deps.Ads.(*fakeAdRepo).ads {
		if ad.Bucket == types.AdBucketBest {
			ad.Bucket = types.AdBucketUnknown
		}
	}

	_, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	if !errors.Is(err, ErrNoExemplarsAvailable) {
		t.Fatalf("expected ErrNoExemplarsAvailable, got %v", err)
	}
	if ai.genCalls != 0 {
		t.Fatalf("no model call should happen without exemplars, got %d", ai.genCalls)
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be persisted, got %d", len(repo.created))
	}
}

func TestGenerateSuggestionsParseFailurePersistsNothing(t *testing.T) {
	deps, target, ai, repo, callLogs := genFixture(t)
	ai.response = variantJSON(2) // model returned the wrong count

	_, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	var parseErr *GenerationParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected GenerationParseError, got %v", err)
	}
	if parseErr.Expected != 3 || parseErr.Got != 2 {
		t.Fatalf("parse error should carry the counts: %+v", parseErr)
	}
	if len(repo.created) != 0 {
		t.Fatalf("parse failure must persist nothing, got %d", len(repo.created))
	}
	// The call itself happened and succeeded; the log records it either way.
	if len(callLogs.rows) != 1 || !callLogs.rows[0].Success {
		t.Fatalf("expected the model call logged as successful, got %+v", callLogs.rows)
	}
}

func TestGenerateSuggestionsPersistsFailedVariants(t *testing.T) {
	deps, target, ai, repo, _ := genFixture(t)
	resp := variantJSON(3)
	resp["variants"].([]any)[1] = map[string]any{
		"headlines":    []any{"Only", "Only", "Only"}, // collapses to one after dedup
		"descriptions": []any{"Free returns on every order.", "Trusted by a million customers."},
	}
	ai.response = resp

	out, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if len(repo.created) != 3 {
		t.Fatalf("failed variants are persisted too, got %d", len(repo.created))
	}
	failed := 0
	for i, s := range repo.created {
		if s.ValidationPassed {
			continue
		}
		failed++
		var errs []string
		if err := json.Unmarshal(s.ValidationErrors, &errs); err != nil || len(errs) == 0 {
			t.Fatalf("failed variant %d should carry validation errors: %s", i, string(s.ValidationErrors))
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failed variant, got %d", failed)
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected validation results for all variants, got %d", len(out.Results))
	}
}

func TestGenerateSuggestionsModelFailureIsLogged(t *testing.T) {
	deps, target, ai, repo, callLogs := genFixture(t)
	ai.genErr = errors.New("rate limited")

	_, err := GenerateSuggestions(context.Background(), deps, GenerateInput{AdID: target.ID, Config: DefaultConfig()})
	if err == nil {
		t.Fatalf("expected error from failed model call")
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be persisted, got %d", len(repo.created))
	}
	if len(callLogs.rows) != 1 || callLogs.rows[0].Success || callLogs.rows[0].Error == "" {
		t.Fatalf("expected one failed call log with the error recorded, got %+v", callLogs.rows)
	}
}

func TestParseVariantsRejectsMalformedShapes(t *testing.T) {
	if _, err := parseVariants(map[string]any{"variants": "not an array"}, 3); err == nil {
		t.Fatalf("expected error for non-array variants")
	}
	if _, err := parseVariants(map[string]any{}, 3); err == nil {
		t.Fatalf("expected error for missing variants key")
	}
	resp := map[string]any{"variants": []any{
		map[string]any{"headlines": []any{}, "descriptions": []any{"d1", "d2"}},
		map[string]any{"headlines": []any{"h1", "h2", "h3"}, "descriptions": []any{"d1", "d2"}},
		map[string]any{"headlines": []any{"h1", "h2", "h3"}, "descriptions": []any{"d1", "d2"}},
	}}
	if _, err := parseVariants(resp, 3); err == nil {
		t.Fatalf("expected error for variant with no headlines")
	}
}
