// Package shell runs external commands with fully buffered output. Nothing
// is ever streamed to the terminal while a command runs; callers receive the
// captured stdout/stderr after completion and decide what to render.
package shell

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner abstracts command execution so tests can inject stub runners that
// return pre-recorded responses.
type Runner interface {
	// Run executes a command in dir and returns captured stdout and stderr.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)

	// LookPath reports whether an executable with the given name is on PATH.
	LookPath(name string) error
}

// ExecRunner executes commands using os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns its buffered stdout and stderr.
func (r *ExecRunner) Run(
	ctx context.Context,
	dir, name string,
	args ...string,
) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), err
}

// LookPath reports whether the executable exists on PATH.
func (r *ExecRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}
