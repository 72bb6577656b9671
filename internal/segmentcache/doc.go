// Package segmentcache decides whether a previously produced segment
// artifact is valid proof of prior work. Each artifact carries a fingerprint
// sidecar summarizing the encode parameters that shaped it; validation
// compares the stored fingerprint against the parameters of the current
// production attempt and against the artifact's actually measured
// properties. Any doubt degrades to a cache miss, never to a failure.
package segmentcache
