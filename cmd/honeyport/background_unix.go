//go:build unix

package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/honeyport/internal/util"
)

// runBackground re-executes the binary detached in its own session with the
// flags the user set. The child logs to cfg.LogFile through the regular
// logger.
func runBackground(cmd *cobra.Command) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := append([]string{executable}, backgroundArgs(cmd.Flags())...)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	procAttr := &os.ProcAttr{
		Dir:   "/",
		Env:   os.Environ(),
		Files: []*os.File{devNull, devNull, devNull},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	proc, err := os.StartProcess(executable, args, procAttr)
	if err != nil {
		return fmt.Errorf("failed to start background process: %w", err)
	}

	pid := proc.Pid
	if err := proc.Release(); err != nil {
		util.Warn("Failed to release process: %v", err)
	}

	fmt.Printf("Honeypot started in background (PID %d)\n", pid)
	fmt.Printf("Logs: %s\n", cfg.LogFile)
	return nil
}
