package review

import (
	"encoding/json"
	"fmt"

	"github.com/tildaslashalef/reviewstack/internal/extractor"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
)

// LegacyParser reads the {review, suggestions, summary} response shape. It only
// tries the bracket span and falls back to a minimal response on any failure.
type LegacyParser struct {
	extractor *extractor.Extractor
	logger    *loggy.Logger
}

// NewLegacyParser creates a LegacyParser
func NewLegacyParser(logger *loggy.Logger) *LegacyParser {
	return &LegacyParser{
		extractor: extractor.New(logger, nil, extractor.BracketSpan),
		logger:    logger,
	}
}

// Parse never fails
func (p *LegacyParser) Parse(content string) *AIReviewResponse {
	resp, err := p.parse(content)
	if err != nil {
		p.logger.Warn("Failed to parse legacy review response, using fallback", "error", err)
		return legacyFallback(content)
	}
	return resp
}

func (p *LegacyParser) parse(content string) (*AIReviewResponse, error) {
	obj, _, ok := p.extractor.Extract(content)
	if !ok {
		return nil, fmt.Errorf("no valid JSON found in response")
	}

	// review must be a non-empty string; suggestions and summary must be present
	review, ok := stringField(obj["review"])
	if !ok || isNull(obj["suggestions"]) || isNull(obj["summary"]) {
		return nil, fmt.Errorf("invalid response structure")
	}

	resp := &AIReviewResponse{
		Review:      review,
		Suggestions: []CodeSuggestion{},
		Summary:     legacySummaryFrom(obj["summary"]),
	}
	for i, elem := range objectList(obj["suggestions"]) {
		resp.Suggestions = append(resp.Suggestions, legacySuggestionFrom(elem, i+1))
	}
	return resp, nil
}

// legacySuggestionFrom reads one suggestion field by field, so a single value
// of the wrong type does not discard the rest of the answer
func legacySuggestionFrom(obj extractor.Object, n int) CodeSuggestion {
	s := CodeSuggestion{
		ID:            fmt.Sprintf("suggestion-%d", n),
		LineStart:     intField(obj["line_start"]),
		LineEnd:       intField(obj["line_end"]),
		OriginalCode:  textField(obj["original_code"]),
		SuggestedCode: textField(obj["suggested_code"]),
		Explanation:   textField(obj["explanation"]),
		Severity:      LegacySeverity(textField(obj["severity"])),
		Category:      Category(textField(obj["category"])),
	}
	if id, ok := idField(obj["id"]); ok {
		s.ID = id
	}
	return s
}

func legacySummaryFrom(raw json.RawMessage) LegacySummary {
	var obj extractor.Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return LegacySummary{}
	}
	score, _ := numberField(obj["overall_score"])
	return LegacySummary{
		TotalIssues:      intField(obj["total_issues"]),
		CriticalIssues:   intField(obj["critical_issues"]),
		SuggestionsCount: intField(obj["suggestions_count"]),
		OverallScore:     score,
	}
}

// intField reads a count or line number, zero when absent or unusable
func intField(raw json.RawMessage) int {
	if line := lineField(raw); line != nil {
		return *line
	}
	return 0
}

// textField returns a JSON string as is, empty for any other type
func textField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// legacyFallback always appends "..." to the preview, even when nothing was cut
func legacyFallback(content string) *AIReviewResponse {
	preview := content
	if runes := []rune(content); len(runes) > summaryPreviewRunes {
		preview = string(runes[:summaryPreviewRunes])
	}
	return &AIReviewResponse{
		Review:      preview + "...",
		Suggestions: []CodeSuggestion{},
		Summary: LegacySummary{
			OverallScore: DefaultRating,
		},
	}
}
