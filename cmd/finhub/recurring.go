package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/recurring"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Verify recurring obligations against the ledger",
	}
	cmd.AddCommand(recurringCheckCmd())
	return cmd
}

func recurringCheckCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Recompute recurring expense checks for one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month: %d", month)
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			checks, err := recurring.NewChecker(store, nil).Run(ctx, year, time.Month(month))
			if err != nil {
				return err
			}

			for _, check := range checks {
				line := fmt.Sprintf("%s  %d-%02d  %s", check.RecurringExpenseID, check.Year, check.Month, check.Status)
				if check.MatchedDate != nil {
					line += fmt.Sprintf("  matched %s (%.2f)", check.MatchedDate.Format("2006-01-02"), *check.MatchedAmount)
				}
				cmd.Println(line)
			}
			cmd.Printf("%d check(s) recomputed\n", len(checks))
			return nil
		},
	}

	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "year to check")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month to check (1-12)")
	return cmd
}
