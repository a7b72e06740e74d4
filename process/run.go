package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/kbukum/greenscreen/errors"
)

// DefaultGracePeriod is used when Command.GracePeriod is zero.
const DefaultGracePeriod = 5 * time.Second

// Run starts cmd and waits for it. When ctx ends first the process group
// gets SIGTERM on unix and is killed once the grace period runs out. A
// non-zero exit is an INTERNAL_ERROR; Result is filled either way.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidConfig("binary", "required")
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // callers choose the binary
	c.Dir, c.Stdin, c.Stdout, c.Stderr = cmd.Dir, cmd.Stdin, &stdout, &stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.WaitDelay = cmd.GracePeriod
	if c.WaitDelay <= 0 {
		c.WaitDelay = DefaultGracePeriod
	}
	terminateGroup(c)

	began := time.Now()
	runErr := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(began),
	}
	switch {
	case runErr == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, errors.Internal(fmt.Errorf("%s killed: %w", cmd.Binary, ctx.Err()))
	default:
		return res, errors.Internal(fmt.Errorf("%s: exit %d: %w", cmd.Binary, res.ExitCode, runErr))
	}
}
