// Package config loads, normalizes, and validates podcaster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODCASTER_TELEGRAM_TOKEN. The Config type centralizes every knob the CLI
// needs, from encoding targets to the list of mirrored tasks, so each task's
// cache file and chat are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
