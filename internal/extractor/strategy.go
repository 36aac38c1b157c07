package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Object is a decoded top-level JSON object whose values are left raw so the
// caller can coerce each field independently.
type Object map[string]json.RawMessage

// Has reports whether key is present
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// HasAny reports whether at least one of keys is present
func (o Object) HasAny(keys ...string) bool {
	for _, key := range keys {
		if o.Has(key) {
			return true
		}
	}
	return false
}

// Strategy pulls one candidate JSON object out of free-form text. Extract is
// pure and reports false when the text holds nothing it can parse.
type Strategy struct {
	Name    string
	Extract func(text string) (Object, bool)
}

var (
	fencedBlockRe  = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)\\s*```")
	bracketSpanRe  = regexp.MustCompile(`\{[\s\S]*\}`)
	keyedSpanRe    = regexp.MustCompile(`\{\s*["'](?:summary|review|issues|suggestions)["'][\s\S]*\}`)
	jsonFenceTagRe = regexp.MustCompile("(?i)```json")
)

// FencedBlock parses the interior of the first ```json fenced block
var FencedBlock = Strategy{
	Name: "fenced",
	Extract: func(text string) (Object, bool) {
		m := fencedBlockRe.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		return parseObject(m[1])
	},
}

// BracketSpan parses everything from the first '{' to the last '}'
var BracketSpan = Strategy{
	Name: "bracket",
	Extract: func(text string) (Object, bool) {
		span := bracketSpanRe.FindString(text)
		if span == "" {
			return nil, false
		}
		return parseObject(span)
	},
}

// KeyedSpan parses from the first '{' that opens with a recognised review key to the last '}'
var KeyedSpan = Strategy{
	Name: "keyed",
	Extract: func(text string) (Object, bool) {
		span := keyedSpanRe.FindString(text)
		if span == "" {
			return nil, false
		}
		return parseObject(span)
	},
}

// Cleanup strips fence markers and any prose around the outermost braces
var Cleanup = Strategy{
	Name: "cleanup",
	Extract: func(text string) (Object, bool) {
		cleaned := jsonFenceTagRe.ReplaceAllString(text, "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")

		if i := strings.Index(cleaned, "{"); i >= 0 {
			cleaned = cleaned[i:]
		}
		if i := strings.LastIndex(cleaned, "}"); i >= 0 {
			cleaned = cleaned[:i+1]
		}
		cleaned = strings.TrimSpace(cleaned)

		if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
			return nil, false
		}
		return parseObject(cleaned)
	},
}

// ReviewStrategies is the full precedence order used for review responses
func ReviewStrategies() []Strategy {
	return []Strategy{FencedBlock, BracketSpan, KeyedSpan, Cleanup}
}

// parseObject succeeds only for a JSON object; arrays, scalars and null are rejected
func parseObject(s string) (Object, bool) {
	var obj Object
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
