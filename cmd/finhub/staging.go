package main

import (
	"github.com/spf13/cobra"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/staging"
)

func stagingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Review staged feed transactions",
	}
	cmd.AddCommand(stagingListCmd())
	cmd.AddCommand(stagingApproveCmd())
	cmd.AddCommand(stagingDismissCmd())
	cmd.AddCommand(stagingRestoreCmd())
	return cmd
}

func stagingListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List staged candidates for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			candidates, err := store.ListCandidates(ctx, args[0], model.CandidateStatus(status))
			if err != nil {
				return err
			}

			for _, c := range candidates {
				suggestion := "-"
				if c.SuggestedCategoryID != nil {
					if cat, catErr := store.GetCategoryByID(ctx, *c.SuggestedCategoryID); catErr == nil {
						suggestion = cat.Name
					}
				}
				cmd.Printf("%s  %s  %10.2f  %-10s  %s  (suggested: %s)\n",
					c.ID, c.Date.Format("2006-01-02"), c.Amount, c.Status, c.Description, suggestion)
			}
			cmd.Printf("%d candidate(s)\n", len(candidates))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "pending", "filter by status (pending, dismissed, reconciled, empty for all)")
	return cmd
}

func stagingApproveCmd() *cobra.Command {
	var categoryID int
	var description string

	cmd := &cobra.Command{
		Use:   "approve <candidate-id>...",
		Short: "Approve staged candidates into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := staging.NewManager(store)

			if len(args) == 1 {
				opts := staging.ApproveOptions{DescriptionOverride: description}
				if cmd.Flags().Changed("category") {
					opts.CategoryID = &categoryID
				}
				entry, approveErr := manager.Approve(ctx, args[0], opts)
				if approveErr != nil {
					return approveErr
				}
				cmd.Printf("Booked entry %s\n", entry.ID)
				return nil
			}

			// Bulk mode never applies a single category to every row.
			result := manager.BulkApprove(ctx, args, nil)
			cmd.Printf("Approved %d, skipped %d\n", result.SuccessCount, len(result.Skipped))
			for _, skipped := range result.Skipped {
				cmd.Printf("  skipped %s: %s\n", skipped.ID, skipped.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&categoryID, "category", 0, "category id override (single approve only)")
	cmd.Flags().StringVar(&description, "description", "", "description override (single approve only)")
	return cmd
}

func stagingDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <candidate-id>...",
		Short: "Dismiss staged candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result := staging.NewManager(store).BulkDismiss(ctx, args)
			cmd.Printf("Dismissed %d, skipped %d\n", result.SuccessCount, len(result.Skipped))
			for _, skipped := range result.Skipped {
				cmd.Printf("  skipped %s: %s\n", skipped.ID, skipped.Reason)
			}
			return nil
		},
	}
}

func stagingRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <candidate-id>",
		Short: "Restore a dismissed candidate to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := staging.NewManager(store).Restore(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Restored %s\n", args[0])
			return nil
		},
	}
}
