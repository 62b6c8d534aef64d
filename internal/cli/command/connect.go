package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/cli/output"
)

// ConnectCommand returns the connect command.
func ConnectCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a game server",
		ArgsUsage: "[HOST:PORT]",
		Action: func(c *cli.Context) error {
			return connectAction(c, env)
		},
	}
}

func connectAction(c *cli.Context, env *Env) error {
	host, port := env.Config.Server.Host, env.Config.Server.Port
	if c.NArg() > 0 {
		var err error
		host, port, err = ParseAddress(c.Args().First(), env.Config.Server.Port)
		if err != nil {
			return err
		}
	}

	var spin *output.Spinner
	if env.outTTY {
		spin = output.NewSpinner(env.Out, "Connecting...")
		spin.Start()
	}

	conn, err := env.connect(c.Context, host, port)
	if err != nil {
		if spin != nil {
			spin.Fail("Connection failed")
		}
		return err
	}

	if spin != nil {
		spin.Success("Connected to " + conn.Address())
		return nil
	}
	env.Printf("Connected to %s", conn.Address())
	return nil
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Disconnect from the current server",
		Action: func(c *cli.Context) error {
			if err := env.Manager.Disconnect(); err != nil {
				return err
			}
			env.Printf("Disconnected")
			return nil
		},
	}
}
