package review

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// System instructions sent alongside each prompt
const (
	ReviewSystemInstruction = "You are an expert code reviewer. Provide detailed, constructive feedback on code quality, security, performance, and best practices. IMPORTANT: Respond with ONLY a valid JSON object - no additional text, markdown formatting, or explanations outside the JSON."

	LegacySystemInstruction = "You are an expert code reviewer. Provide detailed, constructive feedback on code quality, security, performance, and best practices. Return your response as a JSON object with the specified structure."

	FixSystemInstruction = "You are a code fixing assistant. Provide only the corrected code without additional explanations."
)

// Templates for building prompts
const reviewPromptTemplate = `
Please review the following {{.Language}} code from file "{{.FileName}}" and provide detailed feedback.

{{if .Context}}**Context**: {{.Context}}{{end}}

**Code to Review**:
` + "```" + `{{.Language}}
{{.Code}}
` + "```" + `

IMPORTANT: Please respond with ONLY a valid JSON object in this exact format (no additional text, markdown, or explanations):

{
  "summary": "Brief summary of the code review",
  "overallRating": 7,
  "issues": [
    {
      "id": "issue-1",
      "line": 10,
      "severity": "medium",
      "description": "Description of the issue",
      "suggestion": "How to fix it",
      "category": "maintainability"
    }
  ],
  "suggestions": [
    {
      "id": "suggestion-1",
      "title": "Brief title of the suggestion",
      "description": "Detailed description",
      "lineStart": 5,
      "lineEnd": 8,
      "originalCode": "current code snippet",
      "suggestedCode": "improved code",
      "category": "performance"
    }
  ]
}

Valid severity values: {{quoteList .Severities}}
Valid category values: {{quoteList .Categories}}

Focus on:
- Code quality and best practices
- Security vulnerabilities
- Performance optimizations
- Maintainability improvements
- Style and formatting
- Potential bugs or edge cases
`

const legacyPromptTemplate = `
Please review the following {{.Language}} code from file "{{.FileName}}" and provide detailed feedback.

{{if .Context}}**Context**: {{.Context}}{{end}}

**Code to Review**:
` + "```" + `{{.Language}}
{{.Code}}
` + "```" + `

Please provide your response as a JSON object with the following structure:
{
  "review": "Overall review summary and comments",
  "suggestions": [
    {
      "id": "unique-id",
      "line_start": number,
      "line_end": number,
      "original_code": "code snippet",
      "suggested_code": "improved code",
      "explanation": "explanation of the suggestion",
      "severity": "info|warning|error",
      "category": "performance|security|style|bug|maintainability"
    }
  ],
  "summary": {
    "total_issues": number,
    "critical_issues": number,
    "suggestions_count": number,
    "overall_score": number (1-10)
  }
}

Focus on:
- Code quality and best practices
- Security vulnerabilities
- Performance optimizations
- Maintainability improvements
- Style and formatting
- Potential bugs or edge cases
`

const fixPromptTemplate = `
Please provide a specific code fix for the following issue:

**Language**: {{.Language}}
**Issue**: {{.Issue}}
**Current Code**:
` + "```" + `{{.Language}}
{{.Code}}
` + "```" + `

Provide only the corrected code without explanations. Maintain the same structure and style.
`

var funcs = template.FuncMap{
	"quoteList": func(values []string) string {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return strings.Join(quoted, ", ")
	},
}

var (
	reviewPromptTmpl = template.Must(template.New("review").Funcs(funcs).Parse(reviewPromptTemplate))
	legacyPromptTmpl = template.Must(template.New("legacy").Funcs(funcs).Parse(legacyPromptTemplate))
	fixPromptTmpl    = template.Must(template.New("fix").Parse(fixPromptTemplate))
)

type promptData struct {
	Code       string
	FileName   string
	Language   string
	Context    string
	Issue      string
	Severities []string
	Categories []string
}

// BuildPrompt builds the review prompt requesting the summary, overallRating,
// issues and suggestions schema. An empty context leaves its line blank.
func BuildPrompt(code, fileName, language, context string) (string, error) {
	data := promptData{
		Code:     code,
		FileName: fileName,
		Language: language,
		Context:  context,
	}
	for _, s := range severities {
		data.Severities = append(data.Severities, string(s))
	}
	for _, c := range categories {
		data.Categories = append(data.Categories, string(c))
	}
	return render(reviewPromptTmpl, data)
}

// BuildLegacyPrompt builds the prompt for the {review, suggestions, summary} schema
func BuildLegacyPrompt(code, fileName, language, context string) (string, error) {
	return render(legacyPromptTmpl, promptData{
		Code:     code,
		FileName: fileName,
		Language: language,
		Context:  context,
	})
}

// BuildFixPrompt builds the prompt asking for corrected code only
func BuildFixPrompt(code, issue, language string) (string, error) {
	return render(fixPromptTmpl, promptData{
		Code:     code,
		Language: language,
		Issue:    issue,
	})
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s prompt template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
