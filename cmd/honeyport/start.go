package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/notifier"
	"github.com/user/honeyport/internal/storage"
	"github.com/user/honeyport/internal/util"
	"github.com/user/honeyport/internal/web"
)

var background bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the honeypot",
	Long:  "Bind the monitored ports and report connection attempts until stopped.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&background, "background", "b", false,
		"Detach and run in the background")
}

func runStart(cmd *cobra.Command, args []string) error {
	if running, pid := daemon.CheckRunning(cfg.DataDir); running {
		fmt.Printf("Honeypot is already running (PID %d)\n", pid)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		util.Error("%v", err)
		return err
	}

	if background {
		return runBackground(cmd)
	}

	return runForeground()
}

func runForeground() error {
	metrics.Init()

	var (
		opts     []daemon.Option
		sessions web.SessionLister
	)

	db, err := storage.Initialize(cfg.DataDir)
	if err != nil {
		util.Warn("Session history disabled: %v", err)
	} else {
		defer db.Close()

		store := storage.NewSessionStorage(db)
		if n, err := store.CloseDangling("unclean shutdown"); err != nil {
			util.Warn("Failed to close stale sessions: %v", err)
		} else if n > 0 {
			util.Warn("Closed %d session(s) left open by a previous run", n)
		}

		opts = append(opts, daemon.WithSessionStore(store))
		sessions = store
	}

	n := notifier.New(cfg.WebhookURL, cfg.HostName, notifier.WithTimeout(cfg.WebhookTimeout))

	d, err := daemon.New(cfg, n, opts...)
	if err != nil {
		util.Error("%v", err)
		return err
	}

	if cfg.StatusAddr != "" {
		srv := web.NewServer(cfg.StatusAddr, d, sessions)
		go func() {
			if err := srv.Start(); err != nil {
				util.Error("Status server error: %v", err)
			}
		}()
		defer srv.Stop()
	}

	err = d.Run(context.Background())
	if errors.Is(err, daemon.ErrNoListeners) {
		return err
	}
	if err != nil {
		return fmt.Errorf("honeypot failed: %w", err)
	}
	return nil
}
