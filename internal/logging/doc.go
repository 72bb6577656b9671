// Package logging wraps log/slog with the handlers and attribute helpers
// shared by every montage subsystem. Components obtain a tagged logger via
// NewComponentLogger and emit structured attributes through the typed
// helpers (String, Int, Error, ...).
package logging
