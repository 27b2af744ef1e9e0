// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies at construction
// and exposes Definition() for registration plus a Handle method
// compatible with mcp-go's CallToolRequest signature. One file per
// tool.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/aider-tools/aider-mcp/internal/config"
	"github.com/aider-tools/aider-mcp/internal/history"
)

// Executor runs one reconciled aider invocation. Satisfied by
// *aider.Reconciler; faked in tests.
type Executor interface {
	Execute(ctx context.Context, req aider.Request) (aider.Result, error)
}

// Recorder persists invocation records. Satisfied by *history.Store.
// It's an optional dependency — tools work fine with a nil recorder.
type Recorder interface {
	Add(p history.AddParams) (int64, error)
}

// resolveDir validates the optional dir argument, defaulting to the
// server's working directory. The default is the one place the
// ambient cwd is consulted; everything below the tool boundary takes
// the directory explicitly.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		return wd, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

// buildArgs assembles the aider argument vector for one invocation.
// --yes-always keeps aider from blocking on confirmation prompts (no
// terminal is attached), --no-stream/--no-pretty keep the pipes plain.
func buildArgs(settings config.Settings, prompt, model string, files []string, askMode bool) []string {
	args := []string{"--message", prompt, "--yes-always", "--no-stream", "--no-pretty"}
	if askMode {
		args = append(args, "--chat-mode", "ask")
	}
	if model == "" {
		model = settings.Model
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, settings.ExtraArgs...)
	args = append(args, files...)
	return args
}

// splitFiles turns the space-separated files argument into a list.
func splitFiles(files string) []string {
	return strings.Fields(files)
}

// Response prefixes for the four mutually exclusive invocation
// outcomes. A calling UI distinguishes them by the leading line.
const (
	headerSummary   = "## Aider finished"
	headerError     = "## Aider reported an error"
	headerNoOutcome = "## Aider ran with no summary"
	headerFailed    = "## Aider failed to run"
)

// formatResult renders the reconciled result as the user-visible
// message: summary-available, error-detected, or ran-with-no-summary.
func formatResult(res aider.Result) string {
	switch {
	case res.Succeeded:
		return fmt.Sprintf("%s\n\n%s", headerSummary, res.Summary)
	case res.ErrorText != "":
		return fmt.Sprintf(
			"%s\n\n%s\n\nThe aider process exited cleanly, but its conversation log shows this error. Treat the task as not done.",
			headerError, res.ErrorText,
		)
	default:
		return fmt.Sprintf(
			"%s\n\nThe process exited successfully but no completion marker or error signature was found in the conversation log. Review the repository to see what, if anything, changed.",
			headerNoOutcome,
		)
	}
}

// formatRunError renders a process-level failure (spawn error or
// nonzero exit) as the exception-during-execution message.
func formatRunError(err error) string {
	return fmt.Sprintf("%s\n\n%v", headerFailed, err)
}

// record saves an invocation outcome to the history store,
// best-effort: failures are logged, never surfaced, because history
// is an observability aid and must not fail a completed invocation.
func record(rec Recorder, start time.Time, dir, root, prompt string, res aider.Result, runErr error) {
	if rec == nil {
		return
	}

	p := history.AddParams{
		DurationMS: time.Since(start).Milliseconds(),
		Dir:        dir,
		Root:       root,
		Prompt:     prompt,
	}
	switch {
	case runErr != nil:
		p.Status = history.StatusFailed
		p.ErrorText = runErr.Error()
		var exitErr *aider.ExitError
		if errors.As(runErr, &exitErr) {
			p.ExitCode = exitErr.Code
		}
	case res.Succeeded:
		p.Status = history.StatusSummary
		p.Summary = res.Summary
	case res.ErrorText != "":
		p.Status = history.StatusError
		p.ErrorText = res.ErrorText
	default:
		p.Status = history.StatusNoOutcome
	}

	if _, err := rec.Add(p); err != nil {
		log.Printf("WARNING: tools: recording invocation: %v", err)
	}
}
