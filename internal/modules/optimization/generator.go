package optimization

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/types"
)

// GenerationClient is the slice of the AI client generation needs; the
// openai client satisfies it.
type GenerationClient interface {
	EmbeddingClient
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	Model() string
}

type GenerateDeps struct {
	Log         *logger.Logger
	AI          GenerationClient
	Cache       EmbeddingCache
	Ads         repos.AdRepo
	Suggestions repos.SuggestionRepo
	CallLogs    repos.AICallLogRepo
}

type GenerateInput struct {
	AdID   uuid.UUID
	Config Config
}

type GenerateOutput struct {
	Suggestions []*types.Suggestion
	Results     []ValidationResult
	Exemplars   []ExemplarMatch
}

// GenerateSuggestions produces variants for one creative, grounded on the
// account's top performers. It makes exactly one model call per invocation;
// variants that fail validation are persisted alongside the passing ones so
// the model's raw behavior stays auditable. A parse failure persists nothing.
func GenerateSuggestions(ctx context.Context, deps GenerateDeps, in GenerateInput) (GenerateOutput, error) {
	out := GenerateOutput{}
	if deps.Log == nil || deps.AI == nil || deps.Ads == nil || deps.Suggestions == nil {
		return out, fmt.Errorf("generate_suggestions: missing deps")
	}
	log := deps.Log.With("step", "generate_suggestions", "ad_id", in.AdID.String())

	target, err := deps.Ads.GetByID(ctx, nil, in.AdID)
	if err != nil {
		return out, fmt.Errorf("generate_suggestions: load target: %w", err)
	}

	pool, err := deps.Ads.ListByAccountAndBucket(ctx, nil, target.AdAccountID, types.AdBucketBest)
	if err != nil {
		return out, fmt.Errorf("generate_suggestions: load exemplar pool: %w", err)
	}
	pool = excludeAd(pool, target.ID)
	if len(pool) == 0 {
		return out, ErrNoExemplarsAvailable
	}

	exemplars, err := FindSimilar(ctx, FindSimilarDeps{Log: deps.Log, AI: deps.AI, Cache: deps.Cache}, FindSimilarInput{
		Target: target,
		Pool:   pool,
		TopK:   in.Config.TopKExemplars,
	})
	if err != nil {
		return out, err
	}
	out.Exemplars = exemplars

	numVariants := in.Config.NumVariants
	if numVariants <= 0 {
		numVariants = DefaultConfig().NumVariants
	}
	userPrompt := BuildGenerationPrompt(target, exemplars, numVariants)

	started := time.Now()
	resp, genErr := deps.AI.GenerateJSON(ctx, generationSystemPrompt, userPrompt, "ad_variants", VariantsSchema(in.Config.Constraints))
	recordCall(ctx, deps, target, time.Since(started), genErr)
	if genErr != nil {
		return out, fmt.Errorf("generate_suggestions: model call: %w", genErr)
	}

	variants, parseErr := parseVariants(resp, numVariants)
	if parseErr != nil {
		log.Warn("generation response unusable", "error", parseErr)
		return out, parseErr
	}

	suggestions := make([]*types.Suggestion, 0, len(variants))
	for _, v := range variants {
		res := ValidateVariant(v, in.Config.Constraints)
		out.Results = append(out.Results, res)
		suggestions = append(suggestions, buildSuggestion(target, exemplars, res, deps.AI.Model()))
	}

	created, err := deps.Suggestions.Create(ctx, nil, suggestions)
	if err != nil {
		return out, fmt.Errorf("generate_suggestions: persist: %w", err)
	}
	out.Suggestions = created

	passed := 0
	for _, r := range out.Results {
		if r.Passed {
			passed++
		}
	}
	log.Info("suggestions generated",
		"exemplars", len(exemplars),
		"variants", len(created),
		"passed_validation", passed)
	return out, nil
}

func excludeAd(ads []*types.Ad, id uuid.UUID) []*types.Ad {
	kept := ads[:0]
	for _, ad := range ads {
		if ad.ID != id {
			kept = append(kept, ad)
		}
	}
	return kept
}

// parseVariants decodes the structured response. Anything other than exactly
// want well-formed variants is a GenerationParseError: partial results are
// not trusted.
func parseVariants(resp map[string]any, want int) ([]Variant, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, &GenerationParseError{Expected: want, Reason: fmt.Sprintf("re-encode response: %v", err)}
	}
	var decoded struct {
		Variants []Variant `json:"variants"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &GenerationParseError{Expected: want, Reason: fmt.Sprintf("decode variants: %v", err)}
	}
	if len(decoded.Variants) != want {
		return nil, &GenerationParseError{Expected: want, Got: len(decoded.Variants), Reason: "variant count mismatch"}
	}
	for i, v := range decoded.Variants {
		if len(v.Headlines) == 0 || len(v.Descriptions) == 0 {
			return nil, &GenerationParseError{Expected: want, Got: len(decoded.Variants),
				Reason: fmt.Sprintf("variant %d missing headlines or descriptions", i+1)}
		}
	}
	return decoded.Variants, nil
}

func buildSuggestion(target *types.Ad, exemplars []ExemplarMatch, res ValidationResult, model string) *types.Suggestion {
	ids := make([]string, 0, len(exemplars))
	sims := make([]float64, 0, len(exemplars))
	for _, ex := range exemplars {
		ids = append(ids, ex.Ad.ExternalID)
		sims = append(sims, ex.Similarity)
	}
	idsJSON, _ := json.Marshal(ids)
	simsJSON, _ := json.Marshal(sims)
	errsJSON, _ := json.Marshal(res.Errors)

	return &types.Suggestion{
		AdID:             target.ID,
		AdAccountID:      target.AdAccountID,
		Headlines:        types.AssetJSON(res.Variant.Headlines),
		Descriptions:     types.AssetJSON(res.Variant.Descriptions),
		ExemplarIDs:      idsJSON,
		SimilarityScores: simsJSON,
		ValidationPassed: res.Passed,
		ValidationErrors: errsJSON,
		PromptVersion:    PromptVersion,
		ModelUsed:        model,
	}
}

func recordCall(ctx context.Context, deps GenerateDeps, target *types.Ad, latency time.Duration, callErr error) {
	if deps.CallLogs == nil {
		return
	}
	row := &types.AICallLog{
		AdAccountID: &target.AdAccountID,
		AdID:        &target.ID,
		CallType:    "generation",
		Model:       deps.AI.Model(),
		Success:     callErr == nil,
		LatencyMS:   latency.Milliseconds(),
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	if err := deps.CallLogs.Create(ctx, nil, row); err != nil {
		deps.Log.Warn("ai call log write failed", "error", err)
	}
}
