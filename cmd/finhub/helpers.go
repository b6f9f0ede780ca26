package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/classify"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/feed"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/storage"
)

// openStorage opens and migrates the configured database.
func openStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path (--db or database.path)", common.ErrMissingConfig)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// newFeedSource builds the configured feed source.
func newFeedSource() (feed.Source, error) {
	switch provider := viper.GetString("feed.provider"); provider {
	case "plaid":
		return feed.NewPlaidSource(feed.PlaidConfig{
			ClientID:    viper.GetString("feed.plaid.client_id"),
			Secret:      viper.GetString("feed.plaid.secret"),
			Environment: viper.GetString("feed.plaid.environment"),
			AccessToken: viper.GetString("feed.plaid.access_token"),
		})
	case "openbanking":
		return feed.NewOpenBankingSource(feed.OpenBankingConfig{
			BaseURL:      viper.GetString("feed.openbanking.base_url"),
			TokenURL:     viper.GetString("feed.openbanking.token_url"),
			ClientID:     viper.GetString("feed.openbanking.client_id"),
			ClientSecret: viper.GetString("feed.openbanking.client_secret"),
			Timeout:      viper.GetDuration("feed.openbanking.timeout"),
		})
	default:
		return nil, fmt.Errorf("%w: unknown feed provider %q", common.ErrInvalidConfig, provider)
	}
}

// newSuggester wires the keyword suggester behind the TTL cache.
func newSuggester() service.CategorySuggester {
	ttl := viper.GetDuration("classify.cache_ttl")
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return classify.NewCachedSuggester(classify.NewKeywordSuggester(), classify.NewMemoryCache(), ttl)
}

// syncWindow returns the feed fetch window ending today.
func syncWindow() (time.Time, time.Time) {
	days := viper.GetInt("feed.window_days")
	if days <= 0 {
		days = 30
	}
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}
