// Package config defines the habbo-cli configuration.
//
// Values come from ~/.habbo/cli.yaml (or --config), HABBO_* environment
// variables and global flags, merged by confloader. The resulting CLIConfig
// produces the connection, authenticator and logger settings.
package config
