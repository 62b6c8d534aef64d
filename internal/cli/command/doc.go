// Package command provides CLI command definitions for habbo-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, configuration bootstrap
//   - env.go: Shared state (config, connection manager, output)
//   - connect.go: connect / disconnect
//   - auth.go: login / logout / refresh / status
//   - config.go: config show / config init
//   - shell.go: Interactive REPL (default action)
//
// The REPL runs every line back through the same app, so one-shot and
// interactive invocations share flag parsing and actions.
package command
