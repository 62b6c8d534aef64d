package main

import (
	"context"
	"os"
	"time"

	"github.com/yndnr/habbo-go/internal/cli/command"
	"github.com/yndnr/habbo-go/internal/infra/shutdown"
)

func main() {
	os.Exit(run())
}

func run() int {
	env := command.NewEnv(os.Stdin, os.Stdout, os.Stderr)
	app := command.App(env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT/SIGTERM disconnect, which also logs out.
	sh := shutdown.NewHandler(5 * time.Second)
	sh.OnShutdown(func(context.Context) error {
		env.Close()
		return nil
	})
	go func() {
		_ = sh.Wait(ctx)
		cancel()
	}()

	err := app.RunContext(ctx, os.Args)
	cancel()
	<-sh.Done()

	if err != nil {
		command.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}
