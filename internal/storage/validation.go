package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateDateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}

func validateEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		return fmt.Errorf("entry ID cannot be empty")
	}
	if entry.AccountID == "" {
		return fmt.Errorf("entry account ID cannot be empty")
	}
	if entry.Amount < 0 {
		return fmt.Errorf("entry amount cannot be negative: %f", entry.Amount)
	}
	if entry.Direction != model.DirectionIncome && entry.Direction != model.DirectionExpense {
		return fmt.Errorf("invalid entry direction: %q", entry.Direction)
	}
	return nil
}

func validateCandidate(candidate *model.CandidateEntry) error {
	if candidate == nil {
		return fmt.Errorf("candidate cannot be nil")
	}
	if candidate.ID == "" {
		return fmt.Errorf("candidate ID cannot be empty")
	}
	if candidate.AccountID == "" {
		return fmt.Errorf("candidate account ID cannot be empty")
	}
	if candidate.ExternalReferenceID == "" {
		return fmt.Errorf("candidate external reference ID cannot be empty")
	}
	return nil
}
