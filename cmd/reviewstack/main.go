package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/reviewstack/internal/app"
	"github.com/tildaslashalef/reviewstack/internal/commands"
)

// Version information - populated at build time
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

// commandsWithoutApp run before any configuration exists
var commandsWithoutApp = map[string]bool{
	"init": true,
	"help": true,
	"h":    true,
}

func main() {
	cliApp := &cli.App{
		Name:  "reviewstack",
		Usage: "LLM code reviews for GitHub repositories",
		Description: "ReviewStack browses GitHub repositories and reviews their files with a chat-completion model.\n\n" +
			"Run `reviewstack init` once to create ~/.reviewstack/.env, then review files with\n" +
			"`reviewstack review <path>` or serve the browser workspace with `reviewstack serve`.",
		Version: fmt.Sprintf("%s (%s)", Version, CommitHash),
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Before: func(c *cli.Context) error {
			if c.NArg() == 0 || commandsWithoutApp[c.Args().First()] {
				return nil
			}

			application, err := app.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.InitCommand(),
			commands.WhoamiCommand(),
			commands.ReposCommand(),
			commands.SearchCommand(),
			commands.LsCommand(),
			commands.CatCommand(),
			commands.ReviewCommand(),
			commands.FixCommand(),
			commands.ServeCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
