package openai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mailsift/mailsift/internal/domain/classification"
)

const (
	// jsonConfidence fills in when a well-formed reply omits its confidence.
	jsonConfidence = 0.9
	// keywordConfidence is used by the substring fallback.
	keywordConfidence = 0.7
	// errorConfidence is used when the call itself failed.
	errorConfidence = 0.5
)

// parseResponse turns raw oracle text into a result via an ordered chain of
// strategies: strict JSON parse first, substring matching second. Each
// strategy runs only if the previous one failed; the chain always produces a
// result with a category from the closed set.
func parseResponse(raw string) classification.Result {
	if result, err := parseJSON(raw); err == nil {
		return result
	}
	slog.Warn("oracle response was not valid JSON, falling back to keyword match", "response", raw)
	return matchKeywords(raw)
}

// parseJSON accepts the response only if it is valid JSON carrying one of
// the three recognized categories.
func parseJSON(raw string) (classification.Result, error) {
	var parsed struct {
		Category   string   `json:"category"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return classification.Result{}, err
	}

	category := classification.Category(parsed.Category)
	if !category.Valid() {
		return classification.Result{}, fmt.Errorf("unrecognized category %q", parsed.Category)
	}

	result := classification.Result{
		Category:   category,
		Confidence: jsonConfidence,
		Reasoning:  parsed.Reasoning,
	}
	if parsed.Confidence != nil {
		result.Confidence = *parsed.Confidence
	}
	return result, nil
}

// matchKeywords classifies free-text responses by literal substring, checking
// "reply" before "read" before defaulting to archive. The order is part of
// the classification contract and must not change.
func matchKeywords(raw string) classification.Result {
	switch {
	case strings.Contains(raw, "reply"):
		return classification.Result{Category: classification.CategoryReply, Confidence: keywordConfidence}
	case strings.Contains(raw, "read"):
		return classification.Result{Category: classification.CategoryRead, Confidence: keywordConfidence}
	default:
		return classification.Result{Category: classification.CategoryArchive, Confidence: keywordConfidence}
	}
}

// errorFallback is the deterministic result for failed oracle calls: read is
// the conservative choice, since silently archiving an unseen message is the
// one mistake the user cannot notice.
func errorFallback() classification.Result {
	return classification.Result{Category: classification.CategoryRead, Confidence: errorConfidence}
}
