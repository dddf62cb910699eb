// Package config loads, normalizes, and validates the TOML configuration
// for the reelsmith daemon and CLI.
package config
