package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/storage"
	"github.com/user/honeyport/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show honeypot status",
	Long:  "Show whether the honeypot is running, its listeners and recent runs.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	runningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	stoppedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	running, pid := daemon.CheckRunning(cfg.DataDir)

	fmt.Println(titleStyle.Render("honeyport Status"))
	fmt.Println()

	fmt.Print(labelStyle.Render("Honeypot: "))
	if running {
		fmt.Println(runningStyle.Render(fmt.Sprintf("Running (PID %d)", pid)))
	} else {
		fmt.Println(stoppedStyle.Render("Stopped"))
	}

	if st, err := daemon.ReadStatusFile(cfg.DataDir); err == nil {
		fmt.Print(labelStyle.Render("Host: "))
		fmt.Println(valueStyle.Render(st.HostName))

		fmt.Print(labelStyle.Render("Started: "))
		fmt.Println(valueStyle.Render(st.StartTime.Format("2006-01-02 15:04:05")))

		if running {
			fmt.Print(labelStyle.Render("Uptime: "))
			fmt.Println(valueStyle.Render(st.Uptime.Truncate(time.Second).String()))
		}

		fmt.Print(labelStyle.Render("Attempts: "))
		fmt.Println(valueStyle.Render(fmt.Sprintf("%d", st.Attempts)))

		fmt.Print(labelStyle.Render("Webhooks: "))
		fmt.Println(valueStyle.Render(fmt.Sprintf("%d sent, %d failed",
			st.NotificationsSent, st.NotificationsFailed)))

		if len(st.Listeners) > 0 {
			fmt.Println()
			fmt.Println(titleStyle.Render("Listeners"))

			for _, l := range st.Listeners {
				state := "up"
				if l.Error != "" {
					state = "failed: " + l.Error
				} else if !l.Active {
					state = "down"
				}
				fmt.Printf("  %s %s (attempts: %d)\n",
					labelStyle.Render(fmt.Sprintf("%5d %-10s", l.Port, l.Service)),
					valueStyle.Render(state),
					l.Attempts)
			}
		}
	}

	if !util.FileExists(storage.Path(cfg.DataDir)) {
		return nil
	}

	db, err := storage.Initialize(cfg.DataDir)
	if err != nil {
		return nil
	}
	defer db.Close()

	sessions := storage.NewSessionStorage(db)
	recent, err := sessions.Recent(5)
	if err != nil || len(recent) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Recent Runs"))

	now := time.Now()
	for _, s := range recent {
		end := "running"
		if s.StoppedAt != nil {
			end = s.StopReason
		}
		fmt.Printf("  %s %s (%d ports, %s)\n",
			labelStyle.Render(s.StartedAt.Local().Format("2006-01-02 15:04:05")),
			valueStyle.Render(s.Duration(now).Truncate(time.Second).String()),
			len(s.BoundPorts),
			end)
	}

	return nil
}
