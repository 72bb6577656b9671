// Package config loads, normalizes, and validates montage configuration from
// TOML. A Config value is constructed once per run and passed explicitly to
// every component; there is no mutable package-level state.
package config
