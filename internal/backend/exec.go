// Package backend implements the generic backend runtime (§4.4): turning a
// declarative BackendDef into the five operations every package manager
// must support (availability, list, install, remove, search) by
// templating and running shell commands, then parsing their output with
// one of four format-specific decoders.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// killGracePeriod is how long a cancelled child has to exit after SIGTERM
// before it is killed.
const killGracePeriod = 5 * time.Second

// Commander abstracts process execution for testability, matching the
// shape used elsewhere in declarch for subprocess seams.
type Commander interface {
	// Run executes name with args and a timeout, returning its captured
	// stdout and stderr separately and the process's exit error (nil on
	// success).
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecCommander is the production Commander backed by os/exec.
type ExecCommander struct{}

func (e *ExecCommander) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = killGracePeriod
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("command %q timed out after %s: %w", name, timeout, runCtx.Err())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
