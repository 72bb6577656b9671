package session

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// InputSource yields complete input lines without blocking. Poll returns the
// next available line and true, or false when nothing has been typed yet.
type InputSource interface {
	Poll() (string, bool)
}

// promptState is the countdown prompt's finite-state machine state.
type promptState int

const (
	stateCounting promptState = iota
	statePaused
	stateAwaitRange
)

// Prompt runs the confirmation countdown. It polls the input source on a
// fixed tick against a wall-clock deadline; the deadline is suspended while
// paused and while waiting for a range expression.
type Prompt struct {
	Input   InputSource
	Out     io.Writer
	Timeout time.Duration

	// Tick is the poll interval. Tests shrink it; zero means 100ms.
	Tick time.Duration
}

// Run drives the countdown until a decision is reached. Timeout defaults to
// ContinueAll.
func (p *Prompt) Run() Decision {
	tick := p.Tick
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}

	p.printMenu()

	state := stateCounting
	pendingAction := ContinueAll
	deadline := time.Now().Add(p.Timeout)
	lastShown := -1

	for {
		if line, ok := p.Input.Poll(); ok {
			key := strings.ToUpper(strings.TrimSpace(line))
			switch state {
			case stateAwaitRange:
				return Decision{Action: pendingAction, Range: strings.TrimSpace(line)}
			case stateCounting, statePaused:
				switch key {
				case "", "Y":
					if state == statePaused {
						fmt.Fprintln(p.Out, "Resuming processing...")
					}
					return Decision{Action: ContinueAll}
				case "P":
					if state == stateCounting {
						state = statePaused
						fmt.Fprintln(p.Out, "Countdown PAUSED. Press Y/Enter to continue or N to cancel.")
					}
				case "R":
					state = stateAwaitRange
					pendingAction = RerenderRange
					fmt.Fprint(p.Out, "Enter range to re-render (e.g. 3-5, empty for all): ")
				case "M":
					state = stateAwaitRange
					pendingAction = MergeRange
					fmt.Fprint(p.Out, "Enter range to merge (e.g. 1,3-5, empty for all): ")
				case "C":
					return Decision{Action: ClearCache}
				case "O":
					return Decision{Action: Reorganize}
				case "N":
					return Decision{Action: Cancel}
				default:
					fmt.Fprintln(p.Out, "Invalid key. Y/Enter continue, P pause, R re-render, M merge, C clear cache, O organize, N cancel.")
				}
			}
		}

		if state == stateCounting {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				fmt.Fprintln(p.Out, "\nAuto-continuing after timeout...")
				return Decision{Action: ContinueAll}
			}
			if secs := int(remaining.Round(time.Second).Seconds()); secs != lastShown {
				lastShown = secs
				fmt.Fprintf(p.Out, "\rAuto-continuing in %d seconds... (Y/Enter continue, P pause, R re-render, M merge, C clear cache, O organize, N cancel): ", secs)
			}
		}

		time.Sleep(tick)
	}
}

func (p *Prompt) printMenu() {
	fmt.Fprintln(p.Out, "=== CONFIRMATION ===")
	fmt.Fprintln(p.Out, "Options:")
	fmt.Fprintln(p.Out, "  <Y> or <Enter> - Continue with processing")
	fmt.Fprintln(p.Out, "  <P> - Pause countdown (Y/Enter to resume)")
	fmt.Fprintln(p.Out, "  <R> - Re-render a range of slots")
	fmt.Fprintln(p.Out, "  <M> - Merge a range of slots")
	fmt.Fprintln(p.Out, "  <C> - Clear the segment cache")
	fmt.Fprintln(p.Out, "  <O> - Organize the project directory")
	fmt.Fprintln(p.Out, "  <N> - Cancel and exit")
}

// LineReader adapts a blocking reader (stdin) into an InputSource by
// collecting lines on a background goroutine. The goroutine exits with the
// process; construct exactly one per input stream and share it across
// prompts, two readers over the same stream race for bytes.
type LineReader struct {
	lines chan string
}

func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{lines: make(chan string, 4)}
	go func() {
		buf := make([]byte, 0, 80)
		one := make([]byte, 1)
		for {
			n, err := r.Read(one)
			if n > 0 {
				if one[0] == '\n' {
					lr.lines <- strings.TrimRight(string(buf), "\r")
					buf = buf[:0]
				} else {
					buf = append(buf, one[0])
				}
			}
			if err != nil {
				if len(buf) > 0 {
					lr.lines <- string(buf)
				}
				close(lr.lines)
				return
			}
		}
	}()
	return lr
}

func (lr *LineReader) Poll() (string, bool) {
	select {
	case line, ok := <-lr.lines:
		if !ok {
			return "", false
		}
		return line, true
	default:
		return "", false
	}
}

// ScriptedInput is a canned input source for tests and non-interactive
// invocations: each Poll pops the next line.
type ScriptedInput struct {
	Lines []string
	next  int
}

func (s *ScriptedInput) Poll() (string, bool) {
	if s.next >= len(s.Lines) {
		return "", false
	}
	line := s.Lines[s.next]
	s.next++
	return line, true
}
