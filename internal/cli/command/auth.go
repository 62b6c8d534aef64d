package command

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/habbo-go/internal/cli/output"
	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/core/service"
)

// DefaultLoginWait is how long login waits for the server's answer.
const DefaultLoginWait = 5 * time.Second

// LoginCommand returns the login command.
func LoginCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Authenticate with the game server",
		ArgsUsage: "USERNAME [PASSWORD]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "Time to wait for the server's answer (0 to return immediately)",
				Value: DefaultLoginWait,
			},
		},
		Action: func(c *cli.Context) error {
			return loginAction(c, env)
		},
	}
}

func loginAction(c *cli.Context, env *Env) error {
	username := c.Args().Get(0)
	if username == "" {
		return domain.ErrInvalidArgument.WithDetails("usage: login <username> <password>")
	}
	password := c.Args().Get(1)
	if password == "" {
		var err error
		if password, err = env.readPassword(); err != nil {
			return err
		}
	}

	conn, err := env.ensureConnected(c)
	if err != nil {
		return err
	}
	if conn.IsAuthenticated() {
		env.Printf("Already authenticated as %s", conn.Authenticator().CurrentUsername())
		return nil
	}

	wait := c.Duration("wait")
	results := env.expectAuthResult()
	if err := conn.Authenticate(c.Context, username, password); err != nil {
		env.clearPending()
		return err
	}
	if wait <= 0 {
		env.clearPending()
		env.Printf("Authentication request sent for %s", username)
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case r := <-results:
		if r.err != nil {
			return r.err
		}
		env.Printf("Logged in as %s (user id %d)", username, r.resp.UserID)
		return nil
	case <-timer.C:
		env.clearPending()
		env.Printf("Authentication request sent for %s; no answer from server after %s", username, wait)
		return nil
	case <-c.Context.Done():
		env.clearPending()
		return c.Context.Err()
	}
}

// readPassword prompts on the terminal. The shell shares stdin with its
// line reader, so there the password must be an argument.
func (e *Env) readPassword() (string, error) {
	f, ok := e.In.(*os.File)
	if e.interactive || !ok || !term.IsTerminal(int(f.Fd())) {
		return "", domain.ErrInvalidArgument.WithDetails("usage: login <username> <password>")
	}
	fmt.Fprint(e.Out, "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(e.Out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// LogoutCommand returns the logout command.
func LogoutCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "End the current session",
		Action: func(c *cli.Context) error {
			conn := env.Manager.Current()
			if conn == nil {
				return domain.ErrNotAuthenticated
			}
			if err := conn.Logout(); err != nil {
				return err
			}
			env.Printf("Logged out")
			return nil
		},
	}
}

// RefreshCommand returns the refresh command.
func RefreshCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Renew the session token",
		Action: func(c *cli.Context) error {
			conn := env.Manager.Current()
			if conn == nil {
				return domain.ErrNoValidToken
			}
			if err := conn.RefreshToken(c.Context); err != nil {
				return err
			}
			env.Printf("Token refreshed. %s", conn.AuthenticationStatus())
			return nil
		},
	}
}

// StatusCommand returns the status command.
func StatusCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show connection and authentication status",
		Action: func(c *cli.Context) error {
			return env.Print(env.status())
		},
	}
}

func (e *Env) status() output.Fields {
	conn := e.Manager.Current()
	if conn == nil {
		return output.Fields{}.
			Add("Server", "").
			Add("Connected", false).
			Add("Authentication", service.StatusNotAuthenticated)
	}

	auth := conn.Authenticator()
	f := output.Fields{}.
		Add("Server", conn.Address()).
		Add("Connected", conn.IsConnected()).
		Add("Authentication", conn.AuthenticationStatus())

	if tok := auth.CurrentToken(); tok != nil {
		f = f.Add("User", tok.Owner).
			Add("User ID", tok.UserID).
			Add("Token", domain.MaskToken(tok.Value)).
			Add("Expires At", tok.ExpiresAt.Format(time.RFC3339))
	}
	return f.Add("Login Attempts", fmt.Sprintf("%d/%d", auth.LoginAttempts(), auth.MaxAttempts()))
}
