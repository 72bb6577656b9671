// Package producer turns plan slots into standardized temp artifacts. Each
// slot is produced independently: the cache is consulted first, and a miss
// runs ffmpeg, records the fingerprint sidecar, and verifies the result.
package producer
