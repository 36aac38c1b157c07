package config

import "strings"

// DiagnosticSeverity grades a configuration finding
type DiagnosticSeverity string

const (
	DiagnosticWarning DiagnosticSeverity = "warning"
	DiagnosticError   DiagnosticSeverity = "error"
)

// Diagnostic is a non-fatal finding about a loaded configuration. Validate
// rejects configurations that cannot work at all; Diagnostics reports the ones
// that load fine but will fail some operations.
type Diagnostic struct {
	Field    string
	Severity DiagnosticSeverity
	Message  string
}

// Diagnostics inspects credentials and limits and returns findings for the caller to surface
func (c *Config) Diagnostics() []Diagnostic {
	var diags []Diagnostic

	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		diags = append(diags, Diagnostic{
			Field:    "REVIEWSTACK_OPENROUTER_API_KEY",
			Severity: DiagnosticError,
			Message:  "completion API key is not set; code reviews and fix suggestions will fail",
		})
	}

	if strings.TrimSpace(c.GitHub.Token) == "" {
		diags = append(diags, Diagnostic{
			Field:    "REVIEWSTACK_GITHUB_TOKEN",
			Severity: DiagnosticWarning,
			Message:  "GitHub token is not set; only public data is reachable and the authenticated user cannot be fetched",
		})
	}

	if c.OpenRouter.RequestsPerMinute == 0 {
		diags = append(diags, Diagnostic{
			Field:    "REVIEWSTACK_OPENROUTER_REQUESTS_PER_MINUTE",
			Severity: DiagnosticWarning,
			Message:  "completion requests are not rate limited",
		})
	}

	return diags
}

// HasErrors reports whether any diagnostic is an error
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == DiagnosticError {
			return true
		}
	}
	return false
}
