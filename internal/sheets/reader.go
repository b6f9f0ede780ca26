// Package sheets reads bulk transaction rows out of a Google Sheets
// spreadsheet for import into the ledger.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config holds the spreadsheet location and credentials. Exactly one of
// CredentialsFile (service account JSON) or TokenSource must be set.
type Config struct {
	TokenSource     oauth2.TokenSource
	SpreadsheetID   string
	ReadRange       string // e.g. "Transactions!A2:D"
	CredentialsFile string
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet ID is required", common.ErrMissingConfig)
	}
	if c.ReadRange == "" {
		return fmt.Errorf("%w: read range is required", common.ErrMissingConfig)
	}
	if c.CredentialsFile == "" && c.TokenSource == nil {
		return fmt.Errorf("%w: credentials file or token source is required", common.ErrMissingConfig)
	}
	return nil
}

// Reader pulls rows from a spreadsheet range and converts them into ledger
// import rows. Expected columns: date (2006-01-02 or 02/01/2006), amount
// (signed), description.
type Reader struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewReader creates a reader for the configured spreadsheet.
func NewReader(ctx context.Context, config Config) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if config.TokenSource != nil {
		opts = append(opts, option.WithTokenSource(config.TokenSource))
	} else {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Reader{
		service: service,
		config:  config,
		logger:  slog.Default().With("component", "sheets"),
	}, nil
}

// Read fetches the configured range and parses each row into an import row
// for the given account. Malformed rows are logged and skipped so one bad
// cell doesn't abort a whole spreadsheet.
func (r *Reader) Read(ctx context.Context, accountID string) ([]model.LedgerEntry, error) {
	resp, err := r.service.Spreadsheets.Values.
		Get(r.config.SpreadsheetID, r.config.ReadRange).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	entries := make([]model.LedgerEntry, 0, len(resp.Values))
	for i, row := range resp.Values {
		entry, rowErr := parseRow(row, accountID)
		if rowErr != nil {
			r.logger.Warn("Skipping spreadsheet row", "row", i+1, "error", rowErr)
			continue
		}
		entries = append(entries, entry)
	}

	r.logger.Info("Read spreadsheet rows",
		"spreadsheet_id", r.config.SpreadsheetID,
		"rows", len(resp.Values),
		"parsed", len(entries))
	return entries, nil
}

func parseRow(row []any, accountID string) (model.LedgerEntry, error) {
	if len(row) < 3 {
		return model.LedgerEntry{}, fmt.Errorf("expected at least 3 columns, got %d", len(row))
	}

	date, err := parseDate(cell(row[0]))
	if err != nil {
		return model.LedgerEntry{}, err
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(cell(row[1]), ",", ""))
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parse amount %q: %w", cell(row[1]), err)
	}
	amount = amount.Round(2)

	direction := model.DirectionIncome
	if amount.IsNegative() {
		direction = model.DirectionExpense
		amount = amount.Neg()
	}

	description := strings.TrimSpace(cell(row[2]))
	if description == "" {
		return model.LedgerEntry{}, fmt.Errorf("empty description")
	}

	value, _ := amount.Float64()
	return model.LedgerEntry{
		AccountID:   accountID,
		Date:        date,
		Amount:      value,
		Description: description,
		Direction:   direction,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "1/2/2006"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func cell(v any) string {
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
