package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/cli/config"
	"github.com/yndnr/habbo-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Action: func(c *cli.Context) error {
					return configShow(env)
				},
			},
			{
				Name:  "path",
				Usage: "Show the configuration file in use",
				Action: func(c *cli.Context) error {
					if env.ConfigPath == "" {
						env.Printf("No config file loaded (default: %s)", config.DefaultConfigPath())
						return nil
					}
					env.Printf("%s", env.ConfigPath)
					return nil
				},
			},
			{
				Name:      "init",
				Usage:     "Write a configuration file with default values",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						path = config.DefaultConfigPath()
					}
					if err := config.Save(config.Default(), path, c.Bool("force")); err != nil {
						return err
					}
					env.Printf("Configuration written to %s", path)
					return nil
				},
			},
		},
	}
}

// configShow prints the effective configuration. Text output uses YAML
// since the config is nested.
func configShow(env *Env) error {
	f := env.Formatter()
	if env.format == output.FormatText {
		f = output.NewFormatter(output.FormatYAML)
	}
	return f.Format(env.Out, env.Config)
}
