package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"montage/internal/encoding"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			printError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// printError writes the failure, and for encoder exits the material an
// operator needs to act on it: the exact command line and the trailing
// diagnostic lines with the version banner stripped.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, err)

	var cmdErr *encoding.CommandError
	if !errors.As(err, &cmdErr) {
		return
	}
	fmt.Fprintf(w, "command: %s\n", cmdErr.CommandLine())
	for _, line := range cmdErr.DiagnosticTail(15) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
