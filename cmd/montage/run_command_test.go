package main

import (
	"strings"
	"testing"
	"time"

	"montage/internal/session"
)

// A single LineReader must serve both the countdown prompt and the cleanup
// question; the second answer may already be buffered by the time the
// first prompt returns.
func TestCleanupAnswerSurvivesCountdownPrompt(t *testing.T) {
	input := session.NewLineReader(strings.NewReader("y\ny\n"))

	prompt := &session.Prompt{
		Input:   input,
		Out:     nopWriter{},
		Timeout: 2 * time.Second,
		Tick:    time.Millisecond,
	}
	decision := prompt.Run()
	if decision.Action != session.ContinueAll {
		t.Fatalf("countdown decision = %v, want ContinueAll", decision.Action)
	}

	cleanup := &session.Prompt{
		Input:   input,
		Out:     nopWriter{},
		Timeout: 2 * time.Second,
	}
	if !promptYesNo(cleanup) {
		t.Fatal("cleanup answer was lost between prompts")
	}
}

func TestPromptYesNoTimesOutToNo(t *testing.T) {
	prompt := &session.Prompt{
		Input:   &session.ScriptedInput{},
		Out:     nopWriter{},
		Timeout: 100 * time.Millisecond,
	}
	if promptYesNo(prompt) {
		t.Fatal("silence must mean keep")
	}
}
