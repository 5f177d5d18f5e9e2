package optimization

import (
	"fmt"
	"strings"

	"github.com/yungbote/adpilot-backend/internal/types"
)

// PromptVersion is stamped onto every suggestion so prompt changes can be
// correlated with output quality after the fact.
const PromptVersion = "rsa-v1"

const generationSystemPrompt = `You are an expert Google Ads copywriter. You write responsive search ad
variants that match the voice and offer of the account's proven winners.
Hard limits: each headline is at most 30 characters, each description is at
most 90 characters. Every variant needs 3 to 15 headlines and 2 to 4
descriptions. Do not repeat text across assets within a variant. Return only
the requested JSON.`

// BuildGenerationPrompt renders the user prompt for one generation request:
// the underperforming creative, then the exemplars ranked by similarity.
func BuildGenerationPrompt(target *types.Ad, exemplars []ExemplarMatch, numVariants int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rewrite the following underperforming ad. Produce exactly %d variants.\n\n", numVariants)
	b.WriteString("UNDERPERFORMING AD:\n")
	writeAdAssets(&b, target)

	b.WriteString("\nTOP-PERFORMING ADS FROM THE SAME ACCOUNT (most similar first):\n")
	for i, ex := range exemplars {
		fmt.Fprintf(&b, "\nExemplar %d (similarity %.3f):\n", i+1, ex.Similarity)
		writeAdAssets(&b, ex.Ad)
	}

	b.WriteString("\nBorrow the angles and phrasing patterns of the exemplars, keep the\n")
	b.WriteString("underperforming ad's product and offer, and stay inside the character limits.\n")
	return b.String()
}

func writeAdAssets(b *strings.Builder, ad *types.Ad) {
	fmt.Fprintf(b, "  ID: %s\n", ad.ExternalID)
	for _, h := range ad.HeadlineTexts() {
		fmt.Fprintf(b, "  Headline: %s\n", h)
	}
	for _, d := range ad.DescriptionTexts() {
		fmt.Fprintf(b, "  Description: %s\n", d)
	}
}

// VariantsSchema is the structured-output schema handed to the model; the
// response is an object with a single "variants" array.
func VariantsSchema(c Constraints) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"variants"},
		"properties": map[string]any{
			"variants": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"headlines", "descriptions"},
					"properties": map[string]any{
						"headlines": map[string]any{
							"type":     "array",
							"minItems": c.MinHeadlines,
							"maxItems": c.MaxHeadlines,
							"items":    map[string]any{"type": "string"},
						},
						"descriptions": map[string]any{
							"type":     "array",
							"minItems": c.MinDescriptions,
							"maxItems": c.MaxDescriptions,
							"items":    map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
}
