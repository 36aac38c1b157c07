package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/extractor"
)

// untrustedPayload is the model's answer before coercion. Every field is
// optional and any of them may hold a value of the wrong JSON type.
type untrustedPayload struct {
	Summary       json.RawMessage
	OverallRating json.RawMessage
	Issues        []extractor.Object
	Suggestions   []extractor.Object
}

// payloadFromObject splits an extracted object into its raw fields. A field
// that is not an array yields no entries; an element that is not an object
// yields an empty entry so it still takes a default-filled slot.
func payloadFromObject(obj extractor.Object) untrustedPayload {
	return untrustedPayload{
		Summary:       obj["summary"],
		OverallRating: obj["overallRating"],
		Issues:        objectList(obj["issues"]),
		Suggestions:   objectList(obj["suggestions"]),
	}
}

func objectList(raw json.RawMessage) []extractor.Object {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	out := make([]extractor.Object, 0, len(elems))
	for _, elem := range elems {
		var obj extractor.Object
		if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
			obj = extractor.Object{}
		}
		out = append(out, obj)
	}
	return out
}

// stringField returns a non-empty JSON string, or false
func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// idField accepts a non-empty string or a number rendered as text
func idField(raw json.RawMessage) (string, bool) {
	if s, ok := stringField(raw); ok {
		return s, true
	}
	if n, ok := numberField(raw); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// numberField accepts a JSON number or a string holding one
func numberField(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// lineField returns an optional line number rounded to the nearest integer.
// Values that cannot be a line in a file are dropped.
func lineField(raw json.RawMessage) *int {
	n, ok := numberField(raw)
	if !ok {
		return nil
	}
	n = math.Round(n)
	if n < 1 || n > math.MaxInt32 {
		return nil
	}
	line := int(n)
	return &line
}

// coerceRating maps anything the model sent to an integer in [MinRating, MaxRating].
// Missing, zero and unreadable values become DefaultRating.
func coerceRating(raw json.RawMessage) int {
	n, ok := numberField(raw)
	if !ok || n == 0 {
		return DefaultRating
	}
	// Clamp before converting so huge values cannot overflow int
	return int(math.Max(MinRating, math.Min(MaxRating, math.Round(n))))
}

func coerceSeverity(raw json.RawMessage) Severity {
	if s, ok := stringField(raw); ok {
		if sev, ok := ParseSeverity(s); ok {
			return sev
		}
	}
	return DefaultSeverity
}

func coerceCategory(raw json.RawMessage) Category {
	if s, ok := stringField(raw); ok {
		if cat, ok := ParseCategory(s); ok {
			return cat
		}
	}
	return DefaultCategory
}

// toIssue coerces the i-th (0-based) untrusted issue
func toIssue(obj extractor.Object, i int) ReviewIssue {
	issue := ReviewIssue{
		ID:          fmt.Sprintf("issue-%d", i+1),
		Line:        lineField(obj["line"]),
		Severity:    coerceSeverity(obj["severity"]),
		Description: "Issue description not provided",
		Category:    coerceCategory(obj["category"]),
	}
	if id, ok := idField(obj["id"]); ok {
		issue.ID = id
	}
	if desc, ok := stringField(obj["description"]); ok {
		issue.Description = desc
	}
	if fix, ok := stringField(obj["suggestion"]); ok {
		issue.Suggestion = fix
	}
	return issue
}

// toSuggestion coerces the i-th (0-based) untrusted suggestion
func toSuggestion(obj extractor.Object, i int) ReviewSuggestion {
	sug := ReviewSuggestion{
		ID:          fmt.Sprintf("suggestion-%d", i+1),
		Title:       fmt.Sprintf("Suggestion %d", i+1),
		Description: "Suggestion description not provided",
		LineStart:   lineField(obj["lineStart"]),
		LineEnd:     lineField(obj["lineEnd"]),
		Category:    coerceCategory(obj["category"]),
	}
	if id, ok := idField(obj["id"]); ok {
		sug.ID = id
	}
	if title, ok := stringField(obj["title"]); ok {
		sug.Title = title
	}
	if desc, ok := stringField(obj["description"]); ok {
		sug.Description = desc
	}
	if code, ok := stringField(obj["originalCode"]); ok {
		sug.OriginalCode = code
	}
	if code, ok := stringField(obj["suggestedCode"]); ok {
		sug.SuggestedCode = code
	}
	return sug
}
