package optimization

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Constraints carries the RSA text limits. Defaults follow the Google Ads
// responsive search ad format; overrides come from Config.
type Constraints struct {
	MaxHeadlineLen    int `yaml:"max_headline_len"`
	MaxDescriptionLen int `yaml:"max_description_len"`
	MinHeadlines      int `yaml:"min_headlines"`
	MaxHeadlines      int `yaml:"max_headlines"`
	MinDescriptions   int `yaml:"min_descriptions"`
	MaxDescriptions   int `yaml:"max_descriptions"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxHeadlineLen:    30,
		MaxDescriptionLen: 90,
		MinHeadlines:      3,
		MaxHeadlines:      15,
		MinDescriptions:   2,
		MaxDescriptions:   4,
	}
}

// Variant is one generated creative candidate, pre- or post-validation.
type Variant struct {
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
}

type ValidationResult struct {
	Variant  Variant  `json:"variant"`
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateVariant normalizes and checks a variant against c. It is a pure
// function: the input variant is never mutated, and the returned variant is
// the repaired form (truncated, deduplicated). Repairs that change meaning
// surface as warnings; unrepairable problems surface as errors and fail the
// variant. Every error names the offending asset.
func ValidateVariant(v Variant, c Constraints) ValidationResult {
	res := ValidationResult{}

	headlines, hlWarn, hlErr := repairAssets(v.Headlines, "headline", c.MaxHeadlineLen)
	descriptions, dsWarn, dsErr := repairAssets(v.Descriptions, "description", c.MaxDescriptionLen)
	res.Warnings = append(res.Warnings, hlWarn...)
	res.Warnings = append(res.Warnings, dsWarn...)
	res.Errors = append(res.Errors, hlErr...)
	res.Errors = append(res.Errors, dsErr...)

	if len(v.Headlines) > c.MaxHeadlines {
		res.Errors = append(res.Errors, fmt.Sprintf("too many headlines: %d > %d", len(v.Headlines), c.MaxHeadlines))
	}
	if len(v.Descriptions) > c.MaxDescriptions {
		res.Errors = append(res.Errors, fmt.Sprintf("too many descriptions: %d > %d", len(v.Descriptions), c.MaxDescriptions))
	}
	if len(headlines) < c.MinHeadlines {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"too few headlines after normalization: %d < %d (started with %d, dropped %d)",
			len(headlines), c.MinHeadlines, len(v.Headlines), len(v.Headlines)-len(headlines)))
	}
	if len(descriptions) < c.MinDescriptions {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"too few descriptions after normalization: %d < %d (started with %d, dropped %d)",
			len(descriptions), c.MinDescriptions, len(v.Descriptions), len(v.Descriptions)-len(descriptions)))
	}

	res.Variant = Variant{Headlines: headlines, Descriptions: descriptions}
	res.Passed = len(res.Errors) == 0
	return res
}

// repairAssets trims, truncates over-length texts at a word boundary, drops
// empties and duplicates (exact match after trimming; case-sensitive), and
// reports what it changed. Truncations that leave fewer than three characters
// drop the asset instead of shipping a fragment.
func repairAssets(texts []string, kind string, maxLen int) (kept []string, warnings, errors []string) {
	seen := make(map[string]bool, len(texts))
	for i, raw := range texts {
		text := strings.TrimSpace(raw)
		if text == "" {
			errors = append(errors, fmt.Sprintf("%s %d: empty after trimming", kind, i+1))
			continue
		}
		if length := utf8.RuneCountInString(text); length > maxLen {
			truncated := truncateAtWord(text, maxLen)
			if utf8.RuneCountInString(truncated) < 3 {
				errors = append(errors, fmt.Sprintf(
					"%s %d: %d chars exceeds %d and cannot be truncated at a word boundary (%q)",
					kind, i+1, length, maxLen, text))
				continue
			}
			warnings = append(warnings, fmt.Sprintf(
				"%s %d: truncated from %d to %d chars (%q -> %q)",
				kind, i+1, length, utf8.RuneCountInString(truncated), text, truncated))
			text = truncated
		}
		if seen[text] {
			warnings = append(warnings, fmt.Sprintf("%s %d: duplicate %q dropped", kind, i+1, text))
			continue
		}
		seen[text] = true
		kept = append(kept, text)
	}
	return kept, warnings, errors
}

// truncateAtWord cuts text to at most maxLen characters, backing up to the
// last whitespace so no word or rune is split. A single word longer than
// maxLen yields "".
func truncateAtWord(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	cut := runes[:maxLen]
	last := -1
	for i, r := range cut {
		if unicode.IsSpace(r) {
			last = i
		}
	}
	if last <= 0 {
		return ""
	}
	return strings.TrimRightFunc(string(cut[:last]), unicode.IsSpace)
}
