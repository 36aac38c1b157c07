package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/app"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
	"github.com/urfave/cli/v2"
)

// WhoamiCommand shows the account the configured token belongs to
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the GitHub account behind the configured token",
		Action: whoamiAction,
	}
}

func whoamiAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	user, err := application.GitHub.FetchAuthenticatedUser(c.Context)
	if err != nil {
		return err
	}

	utils.PrintKeyValue("Login", user.Login)
	if user.Name != "" {
		utils.PrintKeyValue("Name", user.Name)
	}
	if user.Email != "" {
		utils.PrintKeyValue("Email", user.Email)
	}
	utils.PrintKeyValue("ID", strconv.FormatInt(user.ID, 10))
	return nil
}

// ReposCommand lists repositories of a user
func ReposCommand() *cli.Command {
	return &cli.Command{
		Name:  "repos",
		Usage: "List repositories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "List this user's public repositories instead of your own",
			},
		},
		Action: reposAction,
	}
}

func reposAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	repos, err := application.GitHub.ListRepositories(c.Context, c.String("user"))
	if err != nil {
		return err
	}

	title := "Your repositories"
	if user := c.String("user"); user != "" {
		title = "Repositories of " + user
	}
	printRepositories(title, repos)
	return nil
}

// SearchCommand searches public repositories
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search repositories",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page, starting at 1",
				Value: 1,
			},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if len([]rune(query)) < workspace.MinSearchQueryLength {
		return fmt.Errorf("search query must be at least %d characters", workspace.MinSearchQueryLength)
	}
	if c.Int("page") < 1 {
		return fmt.Errorf("--page must be a positive integer")
	}

	repos, err := application.GitHub.SearchRepositories(c.Context, query, c.Int("page"))
	if err != nil {
		return err
	}

	printRepositories(fmt.Sprintf("Search results for %q (page %d)", query, c.Int("page")), repos)
	return nil
}

func printRepositories(title string, repos []github.Repository) {
	if len(repos) == 0 {
		utils.PrintInfo("No repositories found")
		return
	}

	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		name := r.FullName
		if r.Private {
			name += " 🔒"
		}
		rows = append(rows, []string{
			name,
			r.Language,
			strconv.Itoa(r.Stars),
			utils.WrapText(r.Description, 50, ""),
		})
	}

	opts := utils.DefaultTableOptions()
	opts.Title = title
	utils.PrintTable([]string{"Repository", "Language", "Stars", "Description"}, rows, opts)
}

// LsCommand lists a directory of a repository
func LsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List a directory of a repository",
		ArgsUsage: "[path]",
		Flags:     []cli.Flag{repoFlag},
		Action:    lsAction,
	}
}

func lsAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}
	repo, err := resolveRepo(c)
	if err != nil {
		return err
	}

	dir := strings.Trim(c.Args().First(), "/")
	entries, err := application.GitHub.ListDirectory(c.Context, repo.Owner, repo.Name, dir)
	if err != nil {
		return err
	}
	workspace.SortEntries(entries)

	crumbs := []string{repo.String()}
	for _, crumb := range workspace.Breadcrumbs(dir) {
		crumbs = append(crumbs, crumb.Name)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name, size := e.Name, strconv.Itoa(e.Size)
		if e.IsDir() {
			name += "/"
			size = ""
		}
		rows = append(rows, []string{string(e.Kind), name, size})
	}

	opts := utils.DefaultTableOptions()
	opts.Title = strings.Join(crumbs, " / ")
	utils.PrintTable([]string{"Type", "Name", "Size"}, rows, opts)
	return nil
}

// CatCommand prints a file of a repository
func CatCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Print a file of a repository",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{repoFlag},
		Action:    catAction,
	}
}

func catAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}
	repo, err := resolveRepo(c)
	if err != nil {
		return err
	}

	path := strings.Trim(c.Args().First(), "/")
	if path == "" {
		return fmt.Errorf("a file path is required")
	}

	content, err := application.GitHub.FetchFileContent(c.Context, repo.Owner, repo.Name, path)
	if err != nil {
		return err
	}
	if workspace.IsBinary([]byte(content)) {
		return fmt.Errorf("%s looks like a binary file", path)
	}

	fmt.Fprint(c.App.Writer, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}
