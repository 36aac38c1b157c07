package review

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tildaslashalef/reviewstack/internal/extractor"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
)

const (
	defaultSummary  = "Code review completed"
	fallbackSummary = "Code review completed with limited analysis due to parsing error."

	// summaryPreviewRunes bounds the raw text copied into a fallback summary
	summaryPreviewRunes = 500
)

// reviewKeys are the top-level fields that make an extracted object usable
var reviewKeys = []string{"summary", "overallRating", "issues", "suggestions"}

// Normalizer converts raw completion text into a CodeReview. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	extractor *extractor.Extractor
	now       func() time.Time
	logger    *loggy.Logger
}

// NewNormalizer creates a normalizer trying the fenced, bracket, keyed and
// cleanup strategies in that order
func NewNormalizer(logger *loggy.Logger) *Normalizer {
	accept := func(obj extractor.Object) bool {
		return obj.HasAny(reviewKeys...)
	}
	return &Normalizer{
		extractor: extractor.New(logger, accept, extractor.ReviewStrategies()...),
		now:       time.Now,
		logger:    logger,
	}
}

// Normalize never fails. When no strategy yields a usable object the result is
// a fallback review carrying one parsing-error issue and one retry suggestion.
func (n *Normalizer) Normalize(rawText, fileName, code, repository string) *CodeReview {
	now := n.now()
	review := &CodeReview{
		ID:         fmt.Sprintf("review-%d", now.UnixMilli()),
		FileName:   fileName,
		FilePath:   fileName,
		Code:       code,
		Timestamp:  now,
		Repository: repository,
	}

	obj, strategy, ok := n.extractor.Extract(rawText)
	if !ok {
		n.logger.Warn("Failed to extract review JSON from completion, using fallback review",
			"file", fileName,
			"response_length", len(rawText))
		fillFallback(review, rawText)
		return review
	}

	payload := payloadFromObject(obj)

	review.Summary = defaultSummary
	if summary, ok := stringField(payload.Summary); ok {
		review.Summary = summary
	}
	review.OverallRating = coerceRating(payload.OverallRating)

	review.Issues = make([]ReviewIssue, 0, len(payload.Issues))
	for i, raw := range payload.Issues {
		review.Issues = append(review.Issues, toIssue(raw, i))
	}

	review.Suggestions = make([]ReviewSuggestion, 0, len(payload.Suggestions))
	for i, raw := range payload.Suggestions {
		review.Suggestions = append(review.Suggestions, toSuggestion(raw, i))
	}

	n.logger.Debug("Normalized review",
		"file", fileName,
		"strategy", strategy,
		"rating", review.OverallRating,
		"issues", len(review.Issues),
		"suggestions", len(review.Suggestions))
	return review
}

func fillFallback(review *CodeReview, rawText string) {
	review.Summary = truncate(rawText, summaryPreviewRunes)
	if review.Summary == "" {
		review.Summary = fallbackSummary
	}
	review.OverallRating = DefaultRating
	review.Issues = []ReviewIssue{{
		ID:          "parsing-error",
		Severity:    SeverityMedium,
		Description: "Unable to parse AI response. Please try again.",
		Category:    CategoryMaintainability,
	}}
	review.Suggestions = []ReviewSuggestion{{
		ID:            "retry-suggestion",
		Title:         "Retry Code Review",
		Description:   "The AI response could not be parsed properly. Please try running the code review again.",
		SuggestedCode: "",
		Category:      CategoryMaintainability,
	}}
}

// truncate keeps the first limit runes and marks the cut with "..."
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
