package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicsetu-be/client"
	"civicsetu-be/logger"

	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		baseURL  string
		email    string
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log the admin dashboard counts at a fixed interval",
		Long: `Logs in as a supervisor or admin and polls the dashboard. The password is read
from CIVICSETU_PASSWORD. A poll that is still running when the next one is due is skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			log := logger.WithComponent("watch")

			password := os.Getenv("CIVICSETU_PASSWORD")
			if email == "" || password == "" {
				return errors.New("--email and CIVICSETU_PASSWORD are required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			session := client.NewSession(baseURL, nil)
			if _, err := session.Login(ctx, email, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			poller := &client.Poller{
				Interval: interval,
				Timeout:  timeout,
				Fn: func(ctx context.Context) error {
					stats, err := session.Dashboard(ctx)
					if err != nil {
						return err
					}
					log.Info("dashboard",
						"total", stats.TotalReports,
						"today", stats.TodayReports,
						"pending", stats.PendingReports,
						"completed", stats.CompletedReports,
						"unclassified", stats.UnclassifiedReports,
					)
					return nil
				},
				OnError: func(err error) {
					log.Warn("dashboard poll failed", "error", err)
				},
			}
			err := poller.Run(ctx)
			log.Info("watch stopped", "polls", poller.Runs(), "skipped", poller.Skipped())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for one poll")
	return cmd
}
