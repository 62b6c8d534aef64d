// Package repl implements the interactive mode of habbo-cli.
//
// Each input line is split into words and handed to an Executor, which in
// habbo-cli runs the same urfave/cli application used for one-shot
// commands. History is persisted between sessions; the completer offers
// command names for a prefix.
package repl
