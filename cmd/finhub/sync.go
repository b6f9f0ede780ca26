package main

import (
	"github.com/spf13/cobra"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/reconcile"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <account-id>",
		Short: "Reconcile one account against its bank feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			start, end := syncWindow()
			summary, err := reconcile.New(store, source, newSuggester()).
				SyncAccount(ctx, args[0], start, end)
			if err != nil {
				return err
			}

			cmd.Printf("Synced %s: %d fetched, %d linked, %d staged, %d already seen, %d failed\n",
				summary.AccountID, summary.Fetched, summary.Linked,
				summary.Staged, summary.AlreadySeen, len(summary.Failures))
			for _, failure := range summary.Failures {
				cmd.Printf("  failed %s: %s\n", failure.ExternalReferenceID, failure.Reason)
			}
			return nil
		},
	}
}
