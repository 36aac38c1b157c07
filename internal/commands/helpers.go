package commands

import (
	"fmt"
	"os"

	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/urfave/cli/v2"
)

// repoFlag is shared by every command that reads from a repository
var repoFlag = &cli.StringFlag{
	Name:    "repo",
	Aliases: []string{"r"},
	Usage:   "Repository as owner/name or a GitHub URL (default: origin of the current git checkout)",
}

// repoRef is an owner/name pair
type repoRef struct {
	Owner string
	Name  string
}

func (r repoRef) String() string {
	return r.Owner + "/" + r.Name
}

// resolveRepo returns the --repo flag, or the origin remote of the git
// repository containing the working directory
func resolveRepo(c *cli.Context) (repoRef, error) {
	if ref := c.String("repo"); ref != "" {
		owner, name, err := github.ParseRepoRef(ref)
		if err != nil {
			return repoRef{}, fmt.Errorf("invalid --repo: %w", err)
		}
		return repoRef{Owner: owner, Name: name}, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return repoRef{}, fmt.Errorf("failed to get current working directory: %w", err)
	}
	owner, name, err := github.DetectRemoteRepository(cwd)
	if err != nil {
		return repoRef{}, fmt.Errorf("no --repo given and none detected from git: %w", err)
	}
	return repoRef{Owner: owner, Name: name}, nil
}

// printDiagnostics shows configuration findings, errors first
func printDiagnostics(diags []config.Diagnostic) {
	for _, d := range diags {
		if d.Severity == config.DiagnosticError {
			utils.PrintError(d.Message + " (" + d.Field + ")")
		}
	}
	for _, d := range diags {
		if d.Severity == config.DiagnosticWarning {
			utils.PrintWarning(d.Message + " (" + d.Field + ")")
		}
	}
}

// requireCompletionKey stops commands that call the completion API early when
// the configuration cannot work
func requireCompletionKey(diags []config.Diagnostic) error {
	if !config.HasErrors(diags) {
		return nil
	}
	printDiagnostics(diags)
	return fmt.Errorf("configuration is incomplete, run %s", utils.Command("reviewstack init"))
}
