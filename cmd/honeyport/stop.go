package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/honeyport/internal/daemon"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the honeypot",
	Long:  "Stop a honeypot started with --background gracefully.",
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	running, pid := daemon.CheckRunning(cfg.DataDir)
	if !running {
		fmt.Println("Honeypot is not running")
		return nil
	}

	fmt.Printf("Stopping honeypot (PID %d)...\n", pid)

	if err := daemon.SendStop(cfg.DataDir); err != nil {
		return fmt.Errorf("failed to stop honeypot: %w", err)
	}

	for i := 0; i < 30; i++ {
		time.Sleep(time.Second)
		if running, _ := daemon.CheckRunning(cfg.DataDir); !running {
			fmt.Println("Honeypot stopped")
			return nil
		}
	}

	fmt.Println("Warning: honeypot may not have stopped completely")
	return nil
}
