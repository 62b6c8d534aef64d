package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/cli/output"
	"github.com/yndnr/habbo-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			info := buildinfo.Get()
			if env.format != output.FormatText {
				return env.Print(info)
			}
			return env.Print(output.Fields{}.
				Add("Version", info.Version).
				Add("Commit", info.Commit).
				Add("Built", info.BuildTime).
				Add("Go", info.GoVersion).
				Add("Platform", info.Platform).
				Add("Client Version", env.Config.Client.Version))
		},
	}
}
