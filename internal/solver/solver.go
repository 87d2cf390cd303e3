// Package solver invokes the external constraint solver that enumerates
// instances of a formal model.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMainClass is the Alloy entry point that writes one instance per call
	DefaultMainClass = "edu.mit.csail.sdg.alloy4whole.ExampleUsingKodkod"
	DefaultTimeout   = 2 * time.Minute
)

// SolverInvocationError reports a timed out, failed or silent solver run
type SolverInvocationError struct {
	Source   string
	Index    int
	ExitCode int // -1 when the process did not exit normally
	TimedOut bool
	Stderr   string
	Err      error
}

func (e *SolverInvocationError) Error() string {
	var detail string
	switch {
	case e.TimedOut:
		detail = "timed out"
	case e.ExitCode > 0:
		detail = fmt.Sprintf("exit code %d", e.ExitCode)
	default:
		detail = e.Err.Error()
	}
	msg := fmt.Sprintf("solver failed on %s solution %d: %s", e.Source, e.Index, detail)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *SolverInvocationError) Unwrap() error {
	return e.Err
}

// Runner runs the solver as a child process
type Runner struct {
	// Command is the program and leading arguments; the source path,
	// solution index and output path are appended.
	Command []string
	Timeout time.Duration
	Env     []string
}

// NewAlloyRunner builds a runner for `java -cp <jar> <mainClass>`
func NewAlloyRunner(java, jar, mainClass string) *Runner {
	if java == "" {
		java = "java"
	}
	if mainClass == "" {
		mainClass = DefaultMainClass
	}
	return &Runner{
		Command: []string{java, "-cp", jar, mainClass},
		Timeout: DefaultTimeout,
	}
}

// Solve asks the solver to write solution index of source to outPath
func (r *Runner) Solve(ctx context.Context, source string, index int, outPath string) error {
	if len(r.Command) == 0 {
		return errors.New("solver command is not configured")
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.Command[1:]...), source, strconv.Itoa(index), outPath)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	fail := func(err error) error {
		invErr := &SolverInvocationError{
			Source:   source,
			Index:    index,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			invErr.ExitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			invErr.TimedOut = true
		}
		return invErr
	}

	// only a document written by this run counts as output
	if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear previous output %s: %w", outPath, err)
	}

	if err := cmd.Run(); err != nil {
		return fail(err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fail(fmt.Errorf("no output document: %w", err))
	}
	if info.Size() == 0 {
		return fail(errors.New("empty output document"))
	}
	return nil
}
