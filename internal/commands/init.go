package commands

import (
	"fmt"

	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/utils"
	"github.com/urfave/cli/v2"
)

// InitCommand returns the CLI command for initializing ReviewStack
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the ReviewStack configuration directory",
		Description: "Creates ~/.reviewstack with a commented .env file holding the GitHub token, " +
			"the completion API key and the review parameters. An existing .env is kept " +
			"unless --force is given, in which case it is backed up first.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Configuration directory (default: ~/.reviewstack)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing .env after backing it up",
			},
		},
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	utils.PrintHeading("Initializing ReviewStack")

	configDir := c.String("dir")
	if configDir == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			utils.PrintError(err.Error())
			return err
		}
		configDir = dir
	}

	envPath, err := config.SetupConfigDirectory(configDir, c.Bool("force"))
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to set up configuration files: %s", err))
		return fmt.Errorf("failed to set up configuration directory: %w", err)
	}

	cfg, err := config.LoadFromEnv(configDir, envPath, true)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to load configuration: %s", err))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	utils.PrintSuccess("ReviewStack initialized")
	utils.PrintInfo("Configuration directory: " + utils.Highlight(cfg.ConfigDir()))
	utils.PrintInfo("Configuration file: " + utils.Highlight(envPath))
	utils.PrintInfo("Log file location: " + utils.Highlight(cfg.Logging.Output))
	printDiagnostics(cfg.Diagnostics())

	fmt.Println()
	utils.PrintInfo("Edit the file above, then run " + utils.Command("reviewstack whoami") + " to check your token.")
	return nil
}
