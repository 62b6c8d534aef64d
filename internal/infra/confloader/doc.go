// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults (LoadMap)
//  2. YAML configuration file
//  3. Environment variables (HABBO_ prefix)
//  4. Command-line flags (LoadMap)
//
// Environment names are matched against the known keys, so
// HABBO_SERVER_CONNECT_TIMEOUT sets server.connect_timeout. Watcher reports
// changes to the configuration file for live reload.
package confloader
