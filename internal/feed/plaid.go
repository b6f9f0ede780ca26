package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
)

// PlaidConfig holds Plaid API configuration.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string

	// RefreshToken exchanges the current credentials for a fresh access
	// token during forced re-authentication. Left nil, reauthentication
	// always fails and the original error propagates.
	RefreshToken func(ctx context.Context) (string, error)
}

// Validate ensures all required fields are present.
func (c *PlaidConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	default:
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}
}

// PlaidSource implements Source against the Plaid transactions API.
type PlaidSource struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	refresh     func(ctx context.Context) (string, error)
	accessToken string
}

// NewPlaidSource creates a Plaid-backed feed source.
func NewPlaidSource(cfg PlaidConfig) (*PlaidSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &PlaidSource{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		refresh:     cfg.RefreshToken,
		logger:      slog.Default().With("component", "plaid"),
	}, nil
}

// FetchTransactions fetches the item's transactions within [start, end],
// filtered to the given Plaid account id, paginating through the API.
func (p *PlaidSource) FetchTransactions(ctx context.Context, itemID string, start, end time.Time) ([]Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	var records []Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		request := plaid.NewTransactionsGetRequest(
			p.accessToken,
			start.Format("2006-01-02"),
			end.Format("2006-01-02"),
		)
		options := plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		}
		if itemID != "" {
			options.AccountIds = &[]string{itemID}
		}
		request.SetOptions(options)

		resp, _, err := p.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			return nil, p.mapError(err)
		}

		page := resp.GetTransactions()
		for _, pt := range page {
			record, convErr := p.convert(pt)
			if convErr != nil {
				p.logger.Warn("Skipping malformed feed record",
					"transaction_id", pt.GetTransactionId(), "error", convErr)
				continue
			}
			records = append(records, record)
		}

		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	p.logger.Info("Fetched feed transactions", "item_id", itemID, "count", len(records))
	return records, nil
}

// Reauthenticate refreshes the access token through the configured exchange.
func (p *PlaidSource) Reauthenticate(ctx context.Context) error {
	if p.refresh == nil {
		return fmt.Errorf("no token refresher configured: %w", common.ErrUnauthenticated)
	}
	token, err := p.refresh(ctx)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	p.accessToken = token
	return nil
}

func (p *PlaidSource) convert(pt plaid.Transaction) (Transaction, error) {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		return Transaction{}, fmt.Errorf("parse date %q: %w", pt.GetDate(), err)
	}

	// Plaid reports outflows as positive amounts; the normalized feed
	// keeps the signed convention of negative for money out.
	return Transaction{
		ExternalReferenceID: pt.GetTransactionId(),
		BookingDate:         date,
		Amount:              -pt.GetAmount(),
		Memo:                pt.GetName(),
	}, nil
}

func (p *PlaidSource) mapError(err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	switch plaidErr.ErrorCode {
	case "ITEM_LOGIN_REQUIRED", "INVALID_ACCESS_TOKEN", "INVALID_CREDENTIALS":
		return fmt.Errorf("plaid: %s: %w", plaidErr.ErrorMessage, common.ErrUnauthenticated)
	case "RATE_LIMIT_EXCEEDED", "TRANSACTIONS_LIMIT":
		return fmt.Errorf("plaid: %s: %w", plaidErr.ErrorMessage, common.ErrRateLimit)
	}
	return fmt.Errorf("plaid API error: %s - %s", plaidErr.ErrorCode, plaidErr.ErrorMessage)
}

var _ Source = (*PlaidSource)(nil)
