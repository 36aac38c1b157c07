package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/app"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
	"github.com/urfave/cli/v2"
)

// FixCommand asks the model for a corrected version of a file
func FixCommand() *cli.Command {
	return &cli.Command{
		Name:      "fix",
		Usage:     "Suggest a fix for an issue in a file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			repoFlag,
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Local file to fix instead of a repository path",
			},
			&cli.StringFlag{
				Name:     "issue",
				Aliases:  []string{"i"},
				Usage:    "Description of the issue to fix",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Language of the code (default: detected from the file name)",
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy the fixed code to the clipboard",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print only the fixed code, without styling",
			},
		},
		Action: fixAction,
	}
}

// fixer is the part of the review service the command needs
type fixer interface {
	SuggestFix(ctx context.Context, code, issue, language string) (string, error)
}

func fixAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}
	if err := requireCompletionKey(application.Diagnostics); err != nil {
		return err
	}

	var name, code string
	if local := c.String("file"); local != "" {
		data, err := os.ReadFile(local)
		if err != nil {
			return fmt.Errorf("reading %s: %w", local, err)
		}
		name, code = local, string(data)
	} else {
		name = strings.Trim(c.Args().First(), "/")
		if name == "" {
			return fmt.Errorf("give a repository path, or a local file with --file")
		}
		repo, err := resolveRepo(c)
		if err != nil {
			return err
		}
		code, err = application.GitHub.FetchFileContent(c.Context, repo.Owner, repo.Name, name)
		if err != nil {
			return err
		}
	}

	language := c.String("language")
	if language == "" {
		language = workspace.DetectLanguage(name)
	}

	fixed, err := suggestFix(c.Context, application.Review, code, c.String("issue"), language)
	if err != nil {
		return err
	}

	if c.Bool("raw") {
		fmt.Fprintln(c.App.Writer, fixed)
	} else {
		utils.PrintHeading("Suggested fix for " + name)
		fmt.Fprintln(c.App.Writer, utils.CodeBlock(fixed))
	}

	if c.Bool("copy") {
		if err := utils.CopyToClipboard(fixed); err != nil {
			utils.PrintWarning("Could not copy to clipboard: " + err.Error())
		} else {
			utils.PrintSuccess("Copied to clipboard")
		}
	}
	return nil
}

// suggestFix trims the model output and treats an empty answer as an error,
// since there is nothing to print or copy
func suggestFix(ctx context.Context, f fixer, code, issue, language string) (string, error) {
	fixed, err := f.SuggestFix(ctx, code, issue, language)
	if err != nil {
		return "", err
	}
	fixed = strings.TrimSpace(fixed)
	if fixed == "" {
		return "", fmt.Errorf("the model returned no code")
	}
	return fixed, nil
}
