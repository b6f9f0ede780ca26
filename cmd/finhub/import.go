package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/importer"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/ofx"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/sheets"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import transactions into the ledger",
	}
	cmd.AddCommand(importOFXCmd())
	cmd.AddCommand(importSheetCmd())
	return cmd
}

func importOFXCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "ofx <file>...",
		Short: "Import OFX/QFX statement files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			parser := ofx.NewParser()
			bulk := importer.New(store)

			bar := progressbar.Default(int64(len(args)), "importing")
			totalInserted := 0
			for _, path := range args {
				file, openErr := os.Open(path)
				if openErr != nil {
					return fmt.Errorf("failed to open %s: %w", path, openErr)
				}

				rows, parseErr := parser.Parse(file, accountID)
				_ = file.Close()
				if parseErr != nil {
					return fmt.Errorf("failed to parse %s: %w", path, parseErr)
				}

				inserted, importErr := bulk.ImportBatch(ctx, rows)
				if importErr != nil {
					return fmt.Errorf("failed to import %s: %w", path, importErr)
				}
				totalInserted += len(inserted)
				_ = bar.Add(1)
			}

			cmd.Printf("Imported %d new entries from %d file(s)\n", totalInserted, len(args))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "ledger account to import into")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func importSheetCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Import rows from the configured Google Sheets range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reader, err := sheets.NewReader(ctx, sheets.Config{
				SpreadsheetID:   viper.GetString("sheets.spreadsheet_id"),
				ReadRange:       viper.GetString("sheets.read_range"),
				CredentialsFile: viper.GetString("sheets.credentials_file"),
			})
			if err != nil {
				return err
			}

			rows, err := reader.Read(ctx, accountID)
			if err != nil {
				return err
			}

			inserted, err := importer.New(store).ImportBatch(ctx, rows)
			if err != nil {
				return err
			}

			cmd.Printf("Imported %d new entries (%d duplicates skipped)\n",
				len(inserted), len(rows)-len(inserted))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "ledger account to import into")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
