package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
)

// FetchWithReauth runs one feed fetch with the narrow two-state recovery
// flow: try, and on an authentication failure force a re-authentication and
// try exactly once more. The second failure propagates unmodified. This is
// deliberately not a generic retry loop so the exactly-once guarantee stays
// visible and testable; rate limits and other errors propagate immediately.
func FetchWithReauth(ctx context.Context, src Source, itemID string, start, end time.Time) ([]Transaction, error) {
	records, err := src.FetchTransactions(ctx, itemID, start, end)
	if err == nil {
		return records, nil
	}
	if !errors.Is(err, common.ErrUnauthenticated) {
		return nil, err
	}

	slog.Warn("Feed fetch unauthenticated, re-authenticating once", "item_id", itemID)
	if reauthErr := src.Reauthenticate(ctx); reauthErr != nil {
		return nil, fmt.Errorf("re-authentication failed: %w", reauthErr)
	}

	return src.FetchTransactions(ctx, itemID, start, end)
}
