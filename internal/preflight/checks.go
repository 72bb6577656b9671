// Package preflight verifies the environment before a run touches any
// files: required binaries on PATH and working directories that actually
// exist and are writable.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"montage/internal/config"
	"montage/internal/deps"
)

// Result captures one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Requirements lists the external binaries for the given config.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "ffmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for segment encoding and concatenation",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection and cache validation",
		},
	}
}

// CheckSystemDeps evaluates binary availability for the given config. The
// run command and the deps command both use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(Requirements(cfg))
}

// CheckAll runs every environment check against the configured directories.
func CheckAll(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}
	return results
}
