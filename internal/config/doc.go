// Package config loads, normalizes, and validates dubline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DUBLINE_OPENAI_API_KEY, optionally sourced from a .env file. The Config type
// centralizes every knob the daemon and CLI need: staging and results
// directories, language pair, input validation floors, translation engine
// selection, external tool locations, and worker pool sizing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language tags, and clear validation errors.
package config
