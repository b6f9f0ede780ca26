package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OpenBankingConfig configures the generic OAuth2 open-banking source.
type OpenBankingConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Validate ensures all required fields are present.
func (c *OpenBankingConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: open banking base URL is required", common.ErrMissingConfig)
	}
	if c.TokenURL == "" {
		return fmt.Errorf("%w: open banking token URL is required", common.ErrMissingConfig)
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: open banking client credentials are required", common.ErrMissingConfig)
	}
	return nil
}

// OpenBankingSource implements Source against a REST aggregator that speaks
// OAuth2 client-credentials. Accounts are addressed by the provider-side
// item id; records come back as JSON.
type OpenBankingSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	oauthCfg   *clientcredentials.Config
	token      oauth2.TokenSource
	baseURL    string
}

// NewOpenBankingSource creates the source and primes its token source.
func NewOpenBankingSource(cfg OpenBankingConfig) (*OpenBankingSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	return &OpenBankingSource{
		baseURL:    cfg.BaseURL,
		oauthCfg:   oauthCfg,
		token:      oauthCfg.TokenSource(context.Background()),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default().With("component", "openbanking"),
	}, nil
}

type feedRecord struct {
	ExternalReferenceID string `json:"external_reference_id"`
	BookingDate         string `json:"booking_date"`
	Amount              string `json:"amount"`
	Memo                string `json:"memo"`
}

type feedPage struct {
	Transactions []feedRecord `json:"transactions"`
}

// FetchTransactions fetches the account's transactions within [start, end].
func (o *OpenBankingSource) FetchTransactions(ctx context.Context, itemID string, start, end time.Time) ([]Transaction, error) {
	if itemID == "" {
		return nil, fmt.Errorf("item ID cannot be empty")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	token, err := o.token.Token()
	if err != nil {
		return nil, fmt.Errorf("token acquisition: %w", common.ErrUnauthenticated)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/transactions?%s",
		o.baseURL, url.PathEscape(itemID), url.Values{
			"from": {start.Format("2006-01-02")},
			"to":   {end.Format("2006-01-02")},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("feed returned %d: %w", resp.StatusCode, common.ErrUnauthenticated)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("feed returned 429: %w", common.ErrRateLimit)
	default:
		return nil, fmt.Errorf("feed returned unexpected status %d", resp.StatusCode)
	}

	var page feedPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	records := make([]Transaction, 0, len(page.Transactions))
	for _, raw := range page.Transactions {
		record, convErr := raw.normalize()
		if convErr != nil {
			o.logger.Warn("Skipping malformed feed record",
				"external_reference_id", raw.ExternalReferenceID, "error", convErr)
			continue
		}
		records = append(records, record)
	}

	o.logger.Info("Fetched feed transactions", "item_id", itemID, "count", len(records))
	return records, nil
}

// Reauthenticate drops the cached token so the next fetch acquires a fresh
// one from the token endpoint.
func (o *OpenBankingSource) Reauthenticate(ctx context.Context) error {
	o.token = o.oauthCfg.TokenSource(ctx)
	if _, err := o.token.Token(); err != nil {
		return fmt.Errorf("token refresh failed: %w", common.ErrUnauthenticated)
	}
	return nil
}

func (r feedRecord) normalize() (Transaction, error) {
	if r.ExternalReferenceID == "" {
		return Transaction{}, fmt.Errorf("missing external reference id")
	}
	date, err := time.Parse("2006-01-02", r.BookingDate)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse booking date %q: %w", r.BookingDate, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse amount %q: %w", r.Amount, err)
	}

	value, _ := amount.Round(2).Float64()
	return Transaction{
		ExternalReferenceID: r.ExternalReferenceID,
		BookingDate:         date,
		Amount:              value,
		Memo:                r.Memo,
	}, nil
}

var _ Source = (*OpenBankingSource)(nil)
