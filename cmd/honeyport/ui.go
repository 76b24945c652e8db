package main

import (
	"github.com/spf13/cobra"

	"github.com/user/honeyport/internal/storage"
	"github.com/user/honeyport/internal/tui"
	"github.com/user/honeyport/internal/util"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal dashboard",
	Long: `Launch an interactive terminal dashboard for a running honeypot.

The dashboard shows:
- Sensor state, uptime and webhook delivery counts
- Every monitored port with its attempt count
- Recent runs

Press 'r' to refresh, 'q' to quit.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	var sessions tui.SessionLister

	if util.FileExists(storage.Path(cfg.DataDir)) {
		db, err := storage.Initialize(cfg.DataDir)
		if err != nil {
			util.Warn("Session history unavailable: %v", err)
		} else {
			defer db.Close()
			sessions = storage.NewSessionStorage(db)
		}
	}

	return tui.NewApp(cfg.DataDir, sessions).Run()
}
