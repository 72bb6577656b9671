// Package encoding builds ffmpeg invocations for segment production and
// runs the external encoder. A TransformSpec is the single structured source
// of truth for one transformation: the argument vector, the cache
// fingerprint, and post-encode validation are all derived from it.
package encoding
