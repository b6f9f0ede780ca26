package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/reconcile"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/recurring"
)

// scheduleCmd runs the long-lived loop: on a fixed cadence it re-syncs every
// feed-linked account and recomputes the current month's recurring checks.
// Both operations are idempotent, so overlapping or repeated runs are safe.
func scheduleCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Periodically sync feeds and recompute recurring checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			source, err := newFeedSource()
			if err != nil {
				return err
			}

			reconciler := reconcile.New(store, source, newSuggester())
			checker := recurring.NewChecker(store, nil)

			run := func() {
				accounts, listErr := store.ListAccounts(ctx)
				if listErr != nil {
					slog.Error("Failed to list accounts", "error", listErr)
					return
				}

				start, end := syncWindow()
				for _, account := range accounts {
					if account.FeedItemID == "" {
						continue
					}
					if _, syncErr := reconciler.SyncAccount(ctx, account.ID, start, end); syncErr != nil {
						slog.Error("Scheduled sync failed", "account_id", account.ID, "error", syncErr)
					}
				}

				now := time.Now()
				if _, checkErr := checker.Run(ctx, now.Year(), now.Month()); checkErr != nil {
					slog.Error("Scheduled recurring check failed", "error", checkErr)
				}
			}

			slog.Info("Scheduler started", "interval", interval)
			run()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					slog.Info("Scheduler stopped")
					return nil
				case <-ticker.C:
					run()
				}
			}
		},
	}

	defaultInterval := viper.GetDuration("schedule.interval")
	if defaultInterval <= 0 {
		defaultInterval = 6 * time.Hour
	}
	cmd.Flags().DurationVar(&interval, "interval", defaultInterval, "cadence between runs")
	return cmd
}
