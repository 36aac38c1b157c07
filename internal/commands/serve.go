package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/tildaslashalef/reviewstack/internal/api"
	"github.com/tildaslashalef/reviewstack/internal/app"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/urfave/cli/v2"
)

// ServeCommand runs the JSON HTTP API for a browser front-end
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the review workspace over HTTP",
		Description: "Starts the JSON API used by the browser workspace. Requests may carry their own " +
			"GitHub token as \"Authorization: Bearer <token>\"; the configured token is used otherwise.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address (default: REVIEWSTACK_SERVER_ADDR)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	addr := c.String("addr")
	if addr == "" {
		addr = application.Config.Server.Addr
	}
	printDiagnostics(application.Diagnostics)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := application.NewSession()
	handler := api.NewRouter(api.Deps{
		GitHub:         application.GitHub,
		Reviews:        application.Review,
		Session:        session,
		Logger:         application.Logger.With("component", "api"),
		RequestTimeout: application.Config.Server.RequestTimeout,
	})

	utils.PrintInfo("Listening on " + utils.Highlight(addr) + " (workspace " + session.Name() + ")")
	if err := api.NewServer(addr, handler, application.Logger).Run(ctx); err != nil {
		return err
	}

	utils.PrintInfo("Server stopped")
	return nil
}
