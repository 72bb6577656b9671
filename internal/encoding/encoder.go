package encoding

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"montage/internal/logging"
)

// Runner executes the external encoder binary.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner builds a runner for the given ffmpeg binary.
func NewRunner(binary string, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "encoder"),
	}
}

// Run invokes the encoder and blocks until it exits. A non-zero exit is
// returned as a *CommandError carrying the argv, exit code, and captured
// stderr; the caller is responsible for removing any partial output.
func (r *Runner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	r.logger.Debug("running encoder", logging.String("command", r.binary+" "+strings.Join(args, " ")))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &CommandError{
		Binary:   r.binary,
		Args:     append([]string(nil), args...),
		ExitCode: exitCode,
		Stderr:   stderr.String(),
		cause:    err,
	}
}

// RemovePartial deletes a partially written output file, ignoring absence.
func RemovePartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
