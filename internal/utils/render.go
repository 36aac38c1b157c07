package utils

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tildaslashalef/reviewstack/internal/review"
)

// Gruvbox colors for severity badges
var severityColors = map[review.Severity]lipgloss.AdaptiveColor{
	review.SeverityLow:      {Light: "#458588", Dark: "#83a598"},
	review.SeverityMedium:   {Light: "#d79921", Dark: "#fabd2f"},
	review.SeverityHigh:     {Light: "#d65d0e", Dark: "#fe8019"},
	review.SeverityCritical: {Light: "#cc241d", Dark: "#fb4934"},
}

var badgeStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1).
	Foreground(lipgloss.AdaptiveColor{Light: "#fbf1c7", Dark: "#282828"})

var ratingBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2).
	Bold(true)

// SeverityBadge renders a severity as a colored label like " HIGH "
func SeverityBadge(sev review.Severity) string {
	c, ok := severityColors[sev]
	if !ok {
		c = severityColors[review.DefaultSeverity]
	}
	return badgeStyle.Background(c).Render(strings.ToUpper(string(sev)))
}

// ratingColor goes from red through yellow to green as the rating improves
func ratingColor(rating int) lipgloss.AdaptiveColor {
	switch {
	case rating >= 8:
		return lipgloss.AdaptiveColor{Light: "#98971a", Dark: "#b8bb26"}
	case rating >= 5:
		return lipgloss.AdaptiveColor{Light: "#d79921", Dark: "#fabd2f"}
	default:
		return lipgloss.AdaptiveColor{Light: "#cc241d", Dark: "#fb4934"}
	}
}

// RatingBox renders the overall rating inside a rounded border
func RatingBox(rating int) string {
	c := ratingColor(rating)
	return ratingBoxStyle.
		BorderForeground(c).
		Foreground(c).
		Render(fmt.Sprintf("Rating %d/%d", rating, review.MaxRating))
}

func lineLabel(line *int) string {
	if line == nil {
		return "-"
	}
	return strconv.Itoa(*line)
}

func lineRange(start, end *int) string {
	switch {
	case start == nil:
		return ""
	case end == nil || *end == *start:
		return "line " + strconv.Itoa(*start)
	default:
		return fmt.Sprintf("lines %d-%d", *start, *end)
	}
}

// issuesBySeverity returns a copy of issues ordered most severe first
func issuesBySeverity(issues []review.ReviewIssue) []review.ReviewIssue {
	sorted := append([]review.ReviewIssue(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	return sorted
}

// PrintReview writes a review as a rating box, a wrapped summary, an issues
// table and the suggestions with their code
func PrintReview(w io.Writer, r *review.CodeReview) {
	title := r.FileName
	if r.Repository != "" {
		title = r.Repository + " · " + r.FileName
	}
	fmt.Fprintln(w, Theme.Heading.Sprint(title))
	fmt.Fprintln(w, RatingBox(r.OverallRating))
	fmt.Fprintln(w, WrapText(r.Summary, DefaultWrapWidth, ""))
	fmt.Fprintln(w)

	if len(r.Issues) == 0 {
		fmt.Fprintln(w, Theme.Success.Sprint("No issues found."))
	} else {
		t := CreateTable(TableOptions{Title: fmt.Sprintf("Issues (%d)", len(r.Issues)), Output: w})
		t.AppendHeader(table.Row{"Line", "Severity", "Category", "Description"})
		for _, issue := range issuesBySeverity(r.Issues) {
			desc := issue.Description
			if issue.Suggestion != "" {
				desc += "\n→ " + issue.Suggestion
			}
			t.AppendRow(table.Row{
				lineLabel(issue.Line),
				SeverityBadge(issue.Severity),
				string(issue.Category),
				WrapText(desc, DefaultWrapWidth-20, ""),
			})
		}
		t.Render()
	}

	for i, s := range r.Suggestions {
		fmt.Fprintln(w)
		heading := fmt.Sprintf("Suggestion %d: %s", i+1, s.Title)
		if lines := lineRange(s.LineStart, s.LineEnd); lines != "" {
			heading += Theme.Subtle.Sprint(" (" + lines + ")")
		}
		fmt.Fprintln(w, Theme.Badge.Sprint(heading))
		fmt.Fprintln(w, WrapText(s.Description, DefaultWrapWidth, "  "))
		if s.SuggestedCode != "" {
			fmt.Fprintln(w, CodeBlock(s.SuggestedCode))
		}
	}
}

// ReviewMarkdown renders a review as a markdown document
func ReviewMarkdown(r *review.CodeReview, language string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review of `%s`\n\n", r.FileName)
	if r.Repository != "" {
		fmt.Fprintf(&b, "Repository: **%s**\n\n", r.Repository)
	}
	fmt.Fprintf(&b, "**Overall rating:** %d/%d\n\n", r.OverallRating, review.MaxRating)
	fmt.Fprintf(&b, "%s\n\n", r.Summary)

	fmt.Fprintf(&b, "## Issues (%d)\n\n", len(r.Issues))
	if len(r.Issues) == 0 {
		b.WriteString("No issues found.\n\n")
	} else {
		b.WriteString("| Line | Severity | Category | Description |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, issue := range issuesBySeverity(r.Issues) {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				lineLabel(issue.Line), issue.Severity, issue.Category, markdownCell(issue.Description))
		}
		b.WriteString("\n")
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&b, "## Suggestions (%d)\n\n", len(r.Suggestions))
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "### %s\n\n", s.Title)
			if lines := lineRange(s.LineStart, s.LineEnd); lines != "" {
				fmt.Fprintf(&b, "_%s_\n\n", lines)
			}
			fmt.Fprintf(&b, "%s\n\n", s.Description)
			if s.SuggestedCode != "" {
				fmt.Fprintf(&b, "```%s\n%s\n```\n\n", language, strings.TrimRight(s.SuggestedCode, "\n"))
			}
		}
	}

	return b.String()
}

// markdownCell keeps a value on one table row
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// RenderMarkdown renders markdown for the terminal with glamour
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// PrintLegacyReview writes a legacy response as its prose review plus a table
// of the suggestions it carries
func PrintLegacyReview(w io.Writer, r *review.AIReviewResponse) {
	fmt.Fprintln(w, WrapText(r.Review, DefaultWrapWidth, ""))
	fmt.Fprintln(w)

	PrintKeyValueTo(w, "Total issues", strconv.Itoa(r.Summary.TotalIssues))
	PrintKeyValueTo(w, "Critical issues", strconv.Itoa(r.Summary.CriticalIssues))
	PrintKeyValueTo(w, "Score", strconv.FormatFloat(r.Summary.OverallScore, 'g', -1, 64))

	if len(r.Suggestions) == 0 {
		return
	}
	t := CreateTable(TableOptions{Title: "Suggestions", Output: w})
	t.AppendHeader(table.Row{"Lines", "Severity", "Category", "Explanation"})
	for _, s := range r.Suggestions {
		t.AppendRow(table.Row{
			fmt.Sprintf("%d-%d", s.LineStart, s.LineEnd),
			string(s.Severity),
			string(s.Category),
			WrapText(s.Explanation, DefaultWrapWidth-20, ""),
		})
	}
	t.Render()
}

// PrintKeyValueTo is PrintKeyValue on an arbitrary writer
func PrintKeyValueTo(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s: %s\n", gruvboxBold.Sprint(key), value)
}
