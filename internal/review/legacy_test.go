package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
)

func TestLegacyParse(t *testing.T) {
	p := NewLegacyParser(loggy.NewNoopLogger())

	raw := `Here is my review:
{
  "review": "Looks good overall",
  "suggestions": [
    {"line_start": 3, "line_end": 4, "original_code": "a := 1", "suggested_code": "const a = 1",
     "explanation": "never reassigned", "severity": "info", "category": "style"},
    {"id": "custom", "severity": "error", "category": "bug"}
  ],
  "summary": {"total_issues": 2, "critical_issues": 1, "suggestions_count": 2, "overall_score": 8}
}`

	resp := p.Parse(raw)

	assert.Equal(t, "Looks good overall", resp.Review)
	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, CodeSuggestion{
		ID:            "suggestion-1",
		LineStart:     3,
		LineEnd:       4,
		OriginalCode:  "a := 1",
		SuggestedCode: "const a = 1",
		Explanation:   "never reassigned",
		Severity:      LegacySeverityInfo,
		Category:      CategoryStyle,
	}, resp.Suggestions[0])
	assert.Equal(t, "custom", resp.Suggestions[1].ID)
	assert.Equal(t, LegacySummary{TotalIssues: 2, CriticalIssues: 1, SuggestionsCount: 2, OverallScore: 8}, resp.Summary)
}

func TestLegacyParseEmptySuggestions(t *testing.T) {
	p := NewLegacyParser(loggy.NewNoopLogger())

	resp := p.Parse(`{"review":"Nothing to add","suggestions":[],"summary":{"overall_score":9}}`)

	assert.Equal(t, "Nothing to add", resp.Review)
	assert.NotNil(t, resp.Suggestions)
	assert.Empty(t, resp.Suggestions)
	assert.Equal(t, 9.0, resp.Summary.OverallScore)
}

func TestLegacyParseLenientFields(t *testing.T) {
	p := NewLegacyParser(loggy.NewNoopLogger())

	raw := `{
  "review": "Mostly fine",
  "suggestions": [
    {"id": 4, "line_start": "5", "line_end": [], "explanation": 12, "severity": "warning"},
    "not an object"
  ],
  "summary": {"total_issues": "2", "overall_score": "8", "critical_issues": null}
}`

	resp := p.Parse(raw)

	assert.Equal(t, "Mostly fine", resp.Review)
	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, CodeSuggestion{
		ID:        "4",
		LineStart: 5,
		Severity:  LegacySeverityWarning,
	}, resp.Suggestions[0])
	assert.Equal(t, CodeSuggestion{ID: "suggestion-2"}, resp.Suggestions[1])
	assert.Equal(t, LegacySummary{TotalIssues: 2, OverallScore: 8}, resp.Summary)

	t.Run("suggestions not a list", func(t *testing.T) {
		resp := p.Parse(`{"review":"r","suggestions":"none","summary":"great"}`)
		assert.Equal(t, "r", resp.Review)
		assert.NotNil(t, resp.Suggestions)
		assert.Empty(t, resp.Suggestions)
		assert.Equal(t, LegacySummary{}, resp.Summary)
	})
}

func TestLegacyParseFallback(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReview string
	}{
		{
			name:       "no JSON",
			raw:        "I cannot comply.",
			wantReview: "I cannot comply....",
		},
		{
			name:       "missing summary",
			raw:        `{"review":"r","suggestions":[]}`,
			wantReview: `{"review":"r","suggestions":[]}...`,
		},
		{
			name:       "empty review",
			raw:        `{"review":"","suggestions":[],"summary":{}}`,
			wantReview: `{"review":"","suggestions":[],"summary":{}}...`,
		},
		{
			name:       "fenced JSON is not unwrapped when the span is ambiguous",
			raw:        "{a}\n```json\n{\"review\":\"r\",\"suggestions\":[],\"summary\":{}}\n```",
			wantReview: "{a}\n```json\n{\"review\":\"r\",\"suggestions\":[],\"summary\":{}}\n```...",
		},
		{
			name:       "long text is cut at 500 characters",
			raw:        strings.Repeat("x", 700),
			wantReview: strings.Repeat("x", 500) + "...",
		},
	}

	p := NewLegacyParser(loggy.NewNoopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := p.Parse(tt.raw)
			assert.Equal(t, tt.wantReview, resp.Review)
			assert.NotNil(t, resp.Suggestions)
			assert.Empty(t, resp.Suggestions)
			assert.Equal(t, LegacySummary{OverallScore: 7}, resp.Summary)
		})
	}
}
