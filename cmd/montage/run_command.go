package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"montage/internal/plan"
	"montage/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan, confirm with a countdown, then process and merge",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.controller.BuildPlan()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlan(out, p)

			decision := session.Decision{Action: session.ContinueAll}
			var input *session.LineReader
			if isatty.IsTerminal(os.Stdin.Fd()) {
				// One reader for the whole command; a second reader over
				// the same stream would race its goroutine for bytes.
				input = session.NewLineReader(cmd.InOrStdin())
				prompt := &session.Prompt{
					Input:   input,
					Out:     out,
					Timeout: time.Duration(env.cfg.Prompt.TimeoutSeconds) * time.Second,
				}
				decision = prompt.Run()
			} else {
				fmt.Fprintln(out, "stdin is not a terminal; continuing with all slots")
			}

			output, err := env.controller.Execute(cmd.Context(), p, decision)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(out, "Final output: %s\n", output)
			}

			if decision.Action == session.ContinueAll && output != "" && input != nil {
				offerCleanup(cmd, env, input)
			}
			return nil
		},
	}
}

// offerCleanup asks whether to delete the temp artifacts after a successful
// full merge. Default is keep; the question times out quickly.
func offerCleanup(cmd *cobra.Command, env *environment, input *session.LineReader) {
	out := cmd.OutOrStdout()
	prompt := &session.Prompt{
		Input:   input,
		Out:     nopWriter{},
		Timeout: 5 * time.Second,
	}
	fmt.Fprint(out, "Delete temp segments? [y/N] (5s) ")
	decision := promptYesNo(prompt)
	fmt.Fprintln(out)
	if !decision {
		return
	}
	removed, err := env.controller.CleanupTemp()
	if err != nil {
		fmt.Fprintf(out, "cleanup failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Removed %d temp files.\n", removed)
}

// promptYesNo reuses the prompt's polling loop but collapses the answer to
// yes/anything-else, with timeout meaning no.
func promptYesNo(p *session.Prompt) bool {
	deadline := time.Now().Add(p.Timeout)
	for time.Now().Before(deadline) {
		if line, ok := p.Input.Poll(); ok {
			return strings.EqualFold(strings.TrimSpace(line), "y")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func printPlan(out io.Writer, p plan.Plan) {
	rows := make([][]string, 0, len(p.Slots))
	for _, slot := range p.Slots {
		rows = append(rows, []string{
			fmt.Sprintf("%d", slot.Index),
			slot.Role.String(),
			slot.Name,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Role", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
	if len(p.Ignored) > 0 {
		fmt.Fprintf(out, "Ignored: %s\n", strings.Join(p.Ignored, ", "))
	}
}
