// Package output renders habbo-cli results.
//
// Commands build a value (usually Fields or a struct with json/yaml tags)
// and hand it to the Formatter chosen by --output: text, json or yaml.
// Spinner animates long operations such as connecting on a terminal.
package output
