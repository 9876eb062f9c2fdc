// Package config loads, validates, and defaults streamwatch configuration.
//
// Configuration is TOML, resolved from an explicit --config path, then
// ~/.config/streamwatch/config.toml, then a project-local streamwatch.toml.
// Spotify credentials may be overlaid from the environment (optionally via a
// .env file beside the config) so secrets stay out of the TOML.
package config
