package encoding

import (
	"fmt"
	"strings"
)

// CommandError reports a non-zero encoder exit together with the material an
// operator needs: the exact argv, the exit code, and a banner-trimmed tail of
// the diagnostic output.
type CommandError struct {
	Binary   string
	Args     []string
	ExitCode int
	Stderr   string
	cause    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.cause
}

// CommandLine reconstructs the failing invocation for display.
func (e *CommandError) CommandLine() string {
	return e.Binary + " " + strings.Join(e.Args, " ")
}

// DiagnosticTail returns the relevant trailing lines of the encoder's
// diagnostic output, skipping the version/configuration banner.
func (e *CommandError) DiagnosticTail(maxLines int) []string {
	return diagnosticTail(e.Stderr, maxLines)
}

func diagnosticTail(stderr string, maxLines int) []string {
	if maxLines <= 0 {
		maxLines = 15
	}
	lines := strings.Split(strings.TrimSpace(stderr), "\n")

	relevant := make([]string, 0, len(lines))
	inBanner := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(trimmed, "configuration:"):
			inBanner = true
		case inBanner && (trimmed == "" || isLibraryBannerLine(trimmed)):
			// Still inside the build-info banner.
		case inBanner && strings.HasPrefix(trimmed, "ffmpeg version"):
			// Banner opener.
		default:
			inBanner = false
			if trimmed != "" {
				relevant = append(relevant, trimmed)
			}
		}
	}
	if len(relevant) == 0 {
		// No recognizable banner boundary; fall back to the raw tail.
		for _, line := range lines {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				relevant = append(relevant, trimmed)
			}
		}
	}
	if len(relevant) > maxLines {
		relevant = relevant[len(relevant)-maxLines:]
	}
	return relevant
}

func isLibraryBannerLine(line string) bool {
	for _, prefix := range []string{"libavutil", "libavcodec", "libavformat", "libavdevice", "libavfilter", "libswscale", "libswresample", "libpostproc", "built with"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
