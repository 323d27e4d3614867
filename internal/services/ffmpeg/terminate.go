package ffmpeg

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// procGroupAttr makes the child its own process group leader so a signal
// reaches ffmpeg and any helpers it forks.
func procGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the process group to exit, waits at most grace, then force
// kills. wait must be the memoized cmd.Wait so it is safe to call from both
// the natural-exit path and this one.
func terminate(cmd *exec.Cmd, wait func() error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		return <-done
	}
}
