//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// terminateGroup runs c in its own process group and makes cancellation
// signal the whole group.
func terminateGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
}
