package repl

import (
	"sort"
	"strings"
)

// Builtins are handled by the REPL itself.
var Builtins = []string{"exit", "quit", "history"}

// Completer suggests commands for a typed prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over commands plus the builtins.
func NewCompleter(commands ...string) *Completer {
	seen := make(map[string]struct{})
	all := make([]string, 0, len(commands)+len(Builtins))
	for _, c := range append(append([]string{}, commands...), Builtins...) {
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		all = append(all, c)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.TrimLeft(prefix, " \t")
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
