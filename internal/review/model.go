// Package review turns source files into structured code reviews using a
// chat-completion model
package review

import (
	"strings"
	"time"
)

// Severity represents the severity of an issue
type Severity string

const (
	// SeverityLow represents a low-severity issue
	SeverityLow Severity = "low"
	// SeverityMedium represents a medium-severity issue
	SeverityMedium Severity = "medium"
	// SeverityHigh represents a high-severity issue
	SeverityHigh Severity = "high"
	// SeverityCritical represents a critical issue
	SeverityCritical Severity = "critical"
)

// DefaultSeverity is used when the model reports a severity outside the enumeration
const DefaultSeverity = SeverityMedium

// Category represents the area of code quality an issue or suggestion concerns
type Category string

const (
	// CategoryPerformance represents a performance concern
	CategoryPerformance Category = "performance"
	// CategorySecurity represents a security vulnerability
	CategorySecurity Category = "security"
	// CategoryStyle represents a code style concern
	CategoryStyle Category = "style"
	// CategoryBug represents a potential bug or error
	CategoryBug Category = "bug"
	// CategoryMaintainability represents a maintainability concern
	CategoryMaintainability Category = "maintainability"
)

// DefaultCategory is used when the model reports a category outside the enumeration
const DefaultCategory = CategoryMaintainability

var severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

var categories = []Category{CategoryPerformance, CategorySecurity, CategoryStyle, CategoryBug, CategoryMaintainability}

// ParseSeverity matches s against the enumeration, ignoring case and surrounding space
func ParseSeverity(s string) (Severity, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sev := range severities {
		if string(sev) == s {
			return sev, true
		}
	}
	return "", false
}

// ParseCategory matches s against the enumeration, ignoring case and surrounding space
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, cat := range categories {
		if string(cat) == s {
			return cat, true
		}
	}
	return "", false
}

// Rank orders severities from least to most severe
func (s Severity) Rank() int {
	for i, sev := range severities {
		if sev == s {
			return i
		}
	}
	return -1
}

const (
	// MinRating is the lowest overall rating a review can carry
	MinRating = 1
	// MaxRating is the highest overall rating a review can carry
	MaxRating = 10
	// DefaultRating is used when the model omits the rating or it cannot be read
	DefaultRating = 7
)

// CodeReview is the normalized result of reviewing one file
type CodeReview struct {
	ID            string             `json:"id"`
	FileName      string             `json:"fileName"`
	FilePath      string             `json:"filePath"`
	Code          string             `json:"codeContent"`
	Summary       string             `json:"summary"`
	OverallRating int                `json:"overallRating"`
	Issues        []ReviewIssue      `json:"issues"`
	Suggestions   []ReviewSuggestion `json:"suggestions"`
	Timestamp     time.Time          `json:"timestamp"`
	Repository    string             `json:"repository"`
}

// ReviewIssue is a single problem found during a review
type ReviewIssue struct {
	ID          string   `json:"id"`
	Line        *int     `json:"line,omitempty"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Category    Category `json:"category"`
}

// ReviewSuggestion is a proposed change, optionally anchored to a line range
type ReviewSuggestion struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	LineStart     *int     `json:"lineStart,omitempty"`
	LineEnd       *int     `json:"lineEnd,omitempty"`
	OriginalCode  string   `json:"originalCode,omitempty"`
	SuggestedCode string   `json:"suggestedCode"`
	Category      Category `json:"category"`
}

// CountBySeverity tallies issues per severity
func (r *CodeReview) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(severities))
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// Request describes one file to review
type Request struct {
	Code       string `json:"code"`
	FileName   string `json:"fileName"`
	Language   string `json:"language"`
	Context    string `json:"context,omitempty"`
	Repository string `json:"repository,omitempty"`
}

// LegacySeverity is the three-level scale used by the legacy response shape
type LegacySeverity string

const (
	LegacySeverityInfo    LegacySeverity = "info"
	LegacySeverityWarning LegacySeverity = "warning"
	LegacySeverityError   LegacySeverity = "error"
)

// AIReviewResponse is the legacy {review, suggestions, summary} response shape
type AIReviewResponse struct {
	Review      string           `json:"review"`
	Suggestions []CodeSuggestion `json:"suggestions"`
	Summary     LegacySummary    `json:"summary"`
}

// CodeSuggestion is one entry of a legacy response
type CodeSuggestion struct {
	ID            string         `json:"id"`
	LineStart     int            `json:"line_start"`
	LineEnd       int            `json:"line_end"`
	OriginalCode  string         `json:"original_code"`
	SuggestedCode string         `json:"suggested_code"`
	Explanation   string         `json:"explanation"`
	Severity      LegacySeverity `json:"severity"`
	Category      Category       `json:"category"`
}

// LegacySummary holds the counters of a legacy response
type LegacySummary struct {
	TotalIssues      int     `json:"total_issues"`
	CriticalIssues   int     `json:"critical_issues"`
	SuggestionsCount int     `json:"suggestions_count"`
	OverallScore     float64 `json:"overall_score"`
}
