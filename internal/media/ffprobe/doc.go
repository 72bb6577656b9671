// Package ffprobe wraps the external ffprobe binary used to inspect source
// files and produced artifacts.
package ffprobe
