package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/app"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// Output formats of the review command
const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// ReviewCommand returns the CLI command that reviews files
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review files from a repository or the local disk",
		ArgsUsage: "[path...]",
		Description: "Reviews each path of --repo (or of the origin remote of the current checkout). " +
			"A directory path reviews the files directly inside it. Use --file to review local " +
			"files instead. Files are reviewed concurrently, bounded by REVIEWSTACK_REVIEW_CONCURRENCY.",
		Flags: []cli.Flag{
			repoFlag,
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Local file to review (repeatable)",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "Extra context for the reviewer (default: \"Repository: <name>\")",
			},
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "Request the older review/suggestions/summary response shape",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table, markdown or json",
				Value: formatTable,
			},
		},
		Action: reviewAction,
	}
}

// reviewTarget is one file to review. Content is loaded lazily for remote files.
type reviewTarget struct {
	Path     string
	Content  string
	Remote   bool
	Language string
}

// reviewOutcome pairs a target with its result
type reviewOutcome struct {
	Target reviewTarget
	Review *review.CodeReview
	Legacy *review.AIReviewResponse
	Err    error
}

// reviewRunner is the part of the review service the command needs
type reviewRunner interface {
	GenerateCodeReview(ctx context.Context, req review.Request) (*review.CodeReview, error)
	ReviewCode(ctx context.Context, code, fileName, language string) (*review.AIReviewResponse, error)
}

// fileSource fetches remote file content and directory listings
type fileSource interface {
	ListDirectory(ctx context.Context, owner, repo, path string) ([]github.TreeEntry, error)
	FetchFileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// reviewJob holds everything runReviews needs besides the targets
type reviewJob struct {
	Reviewer reviewRunner
	Source   fileSource
	Repo     *repoRef
	Context  string
	Legacy   bool
	Limit    int
}

func reviewAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}
	if err := requireCompletionKey(application.Diagnostics); err != nil {
		return err
	}

	format := strings.ToLower(c.String("format"))
	if format != formatTable && format != formatMarkdown && format != formatJSON {
		return fmt.Errorf("unknown --format %q: use table, markdown or json", c.String("format"))
	}

	job := reviewJob{
		Reviewer: application.Review,
		Source:   application.GitHub,
		Context:  c.String("context"),
		Legacy:   c.Bool("legacy"),
		Limit:    application.Config.Review.Concurrency,
	}

	var targets []reviewTarget
	if files := c.StringSlice("file"); len(files) > 0 {
		targets, err = localTargets(files)
		if err != nil {
			return err
		}
		// The repository only labels local reviews, so failing to find one is fine
		if repo, err := resolveRepo(c); err == nil {
			job.Repo = &repo
		}
	} else {
		if c.NArg() == 0 {
			return fmt.Errorf("give repository paths to review, or local files with --file")
		}
		repo, err := resolveRepo(c)
		if err != nil {
			return err
		}
		job.Repo = &repo
		targets, err = remoteTargets(c.Context, application.GitHub, repo, c.Args().Slice())
		if err != nil {
			return err
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("nothing to review")
	}

	if format != formatJSON {
		utils.PrintInfo(fmt.Sprintf("Reviewing %d file(s) with %s", len(targets), application.Completion.DefaultModel()))
	}

	outcomes := runReviews(c.Context, job, targets)
	return writeOutcomes(c.App.Writer, outcomes, format)
}

// localTargets reads files from disk, rejecting binary content
func localTargets(paths []string) ([]reviewTarget, error) {
	targets := make([]reviewTarget, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if workspace.IsBinary(data) {
			return nil, fmt.Errorf("%s looks like a binary file", p)
		}
		targets = append(targets, reviewTarget{
			Path:     filepath.ToSlash(p),
			Content:  string(data),
			Language: workspace.DetectLanguage(p),
		})
	}
	return targets, nil
}

// remoteTargets expands each path into the files it names. A directory
// contributes the files directly inside it, minus vendored ones.
func remoteTargets(ctx context.Context, source fileSource, repo repoRef, paths []string) ([]reviewTarget, error) {
	var targets []reviewTarget
	seen := make(map[string]bool)

	for _, p := range paths {
		p = strings.Trim(p, "/")
		entries, err := source.ListDirectory(ctx, repo.Owner, repo.Name, p)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}

		// A file path lists as exactly itself
		single := len(entries) == 1 && !entries[0].IsDir() && entries[0].Path == p
		for _, e := range entries {
			if e.IsDir() || seen[e.Path] {
				continue
			}
			if !single && workspace.IsVendored(e.Path) {
				continue
			}
			seen[e.Path] = true
			targets = append(targets, reviewTarget{
				Path:     e.Path,
				Remote:   true,
				Language: workspace.DetectLanguage(e.Name),
			})
		}
	}
	return targets, nil
}

// runReviews reviews targets with at most job.Limit completions in flight.
// A failing file does not stop the others; its error is kept in its outcome.
func runReviews(ctx context.Context, job reviewJob, targets []reviewTarget) []reviewOutcome {
	outcomes := make([]reviewOutcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	if job.Limit > 0 {
		g.SetLimit(job.Limit)
	}

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			outcomes[i] = reviewOne(gctx, job, target)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func reviewOne(ctx context.Context, job reviewJob, target reviewTarget) reviewOutcome {
	out := reviewOutcome{Target: target}
	logger := loggy.With("path", target.Path)

	if target.Remote {
		content, err := job.Source.FetchFileContent(ctx, job.Repo.Owner, job.Repo.Name, target.Path)
		if err != nil {
			out.Err = err
			return out
		}
		out.Target.Content = content
	}

	fileName := path.Base(target.Path)
	if job.Legacy {
		out.Legacy, out.Err = job.Reviewer.ReviewCode(ctx, out.Target.Content, fileName, target.Language)
		return out
	}

	req := review.Request{
		Code:     out.Target.Content,
		FileName: fileName,
		Language: target.Language,
		Context:  job.Context,
	}
	if job.Repo != nil {
		req.Repository = job.Repo.String()
		if req.Context == "" {
			req.Context = "Repository: " + job.Repo.Name
		}
	}

	out.Review, out.Err = job.Reviewer.GenerateCodeReview(ctx, req)
	if out.Err == nil {
		out.Review.FilePath = target.Path
		counts := out.Review.CountBySeverity()
		logger.Info("File reviewed",
			"rating", out.Review.OverallRating,
			"issues", len(out.Review.Issues),
			"critical", counts[review.SeverityCritical],
			"high", counts[review.SeverityHigh],
		)
	}
	return out
}

// writeOutcomes prints every outcome in format and returns an error naming
// the files that failed
func writeOutcomes(w io.Writer, outcomes []reviewOutcome, format string) error {
	var failed []string

	if format == formatJSON {
		results := []any{}
		for _, o := range outcomes {
			if o.Err != nil {
				failed = append(failed, o.Target.Path)
				utils.PrintError(fmt.Sprintf("%s: %s", o.Target.Path, o.Err))
				continue
			}
			if o.Legacy != nil {
				results = append(results, o.Legacy)
			} else {
				results = append(results, o.Review)
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		var err error
		if len(results) == 1 {
			err = enc.Encode(results[0])
		} else {
			err = enc.Encode(results)
		}
		if err != nil {
			return fmt.Errorf("encoding reviews: %w", err)
		}
	} else {
		for i, o := range outcomes {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if o.Err != nil {
				failed = append(failed, o.Target.Path)
				utils.PrintError(fmt.Sprintf("%s: %s", o.Target.Path, o.Err))
				continue
			}
			if err := writeOutcome(w, o, format); err != nil {
				return err
			}
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d file(s) failed: %s", len(failed), len(outcomes), strings.Join(failed, ", "))
	}
	return nil
}

func writeOutcome(w io.Writer, o reviewOutcome, format string) error {
	if format == formatTable {
		if o.Legacy != nil {
			fmt.Fprintln(w, utils.Theme.Heading.Sprint(o.Target.Path))
			utils.PrintLegacyReview(w, o.Legacy)
		} else {
			utils.PrintReview(w, o.Review)
		}
		return nil
	}

	var md string
	if o.Legacy != nil {
		md = fmt.Sprintf("# Review of `%s`\n\n%s\n", o.Target.Path, o.Legacy.Review)
	} else {
		md = utils.ReviewMarkdown(o.Review, o.Target.Language)
	}
	rendered, err := utils.RenderMarkdown(md, 100)
	if err != nil {
		return err
	}
	fmt.Fprint(w, rendered)
	return nil
}
