//go:build !windows

package main

import (
	"os"
	"os/exec"
	"syscall"
)

// spawnDetached starts path in a new session with stdio on /dev/null
func spawnDetached(path string, args []string) (int, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, err
	}
	defer devNull.Close()
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}
